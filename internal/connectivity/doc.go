// Package connectivity tracks whether the remote store is reachable by
// probing it periodically and notifies subscribers on online/offline
// transitions.
package connectivity
