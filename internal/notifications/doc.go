// Package notifications sends review-decision e-mails to the operator who
// submitted an intake record.
package notifications
