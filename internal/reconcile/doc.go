// Package reconcile drains the offline submission queue into the remote store.
//
// Sync delivers a snapshot of the queue in FIFO order under the identity
// resolved at the start of the attempt. A failed insert keeps its item and the
// drain moves on; a missing identity aborts the whole attempt before any
// insert. Run listens for reconnects and queue growth and coalesces triggers
// that arrive mid-drain into one follow-up drain. There is no retry backoff:
// failed items wait for the next trigger.
package reconcile
