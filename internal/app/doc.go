// Package app is the composition root for CadSocial.
//
// # Overview
//
// Open wires configuration, logging, local storage, the offline queue, the
// remote store, the connectivity monitor, the reconciler and the submission
// path into a Runtime. Start launches the background goroutines under one
// errgroup; cancelling the context stops them all. The TUI and every CLI
// command go through the same Runtime so they share one view of the queue.
//
// # Wiring
//
//	config.Load ─┬─> logging.New            file log, console when a TTY
//	             ├─> storage.Open           file | sqlite | redis | memory
//	             │     └─> queue.New + Load
//	             ├─> openRemote             database_url > api_url > none
//	             ├─> connectivity.New       probe = remote Ping
//	             ├─> reconcile.New          metrics into Registry, results into State
//	             └─> intake.NewSubmitter
//
//	Start:
//	┌──────────────────────────────────────────────┐
//	│ errgroup                                     │
//	│  ├─> Monitor.Start / Stop on cancel          │
//	│  ├─> Reconciler.Run  (online + enqueue)      │
//	│  └─> File.Watch → Queue.Reload (file only)   │
//	└──────────────────────────────────────────────┘
//
// # Offline-only mode
//
// With neither api_url nor database_url configured the runtime still opens:
// the probe always fails, so the monitor reports offline and every submission
// is queued. Commands that need the remote call RequireRemote.
//
// # Shutdown
//
// Close releases resources in reverse order of acquisition: database pool,
// storage, then the log file.
package app
