// Package state shares background status with the form UI.
//
// # Overview
//
// The connectivity monitor, the offline queue and the reconciler all run off
// the UI goroutine. Each reports into a Store; the UI reads a Snapshot on its
// own refresh tick and renders the banner from it.
//
//	Producers:                         Consumer (UI):
//	┌──────────────────────┐          ┌─────────────────┐
//	│ monitor → SetOnline  │          │                 │
//	│ queue   → SetPending │─────────→│ store.Snapshot()│
//	│ sync    → RecordSync │ (mutex)  │ render banner   │
//	└──────────────────────┘          └─────────────────┘
//
// # Concurrency Model
//
// Writers take the write lock for a field assignment; Snapshot takes the read
// lock and copies the notices slice so the UI can hold on to a snapshot while
// writers continue.
//
// # Notices
//
// RecordSync replaces the visible notices with the lines derived from the
// sync result. Skipped attempts only clear the syncing flag, so an abort
// notice stays on screen until the next real attempt or an explicit dismiss.
//
// The zero Store is ready to use; connectivity reads as unknown until the
// first SetOnline.
package state
