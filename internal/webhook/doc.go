// Package webhook serves the database webhook that announces review decisions
// by e-mail, plus health and Prometheus endpoints.
package webhook
