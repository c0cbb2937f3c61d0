package state

import (
	"sync"
	"time"

	"github.com/SantanaDZ/cad-social/internal/reconcile"
)

// Snapshot represents the latest background state available to the UI.
type Snapshot struct {
	Online     bool
	HasOnline  bool // false until the first connectivity report
	Pending    int
	Syncing    bool
	LastSync   reconcile.Result
	LastSyncAt time.Time
	Notices    []reconcile.Notice
}

// IsOffline reports whether connectivity is known and down.
func (s Snapshot) IsOffline() bool {
	return s.HasOnline && !s.Online
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
	draining func() bool
}

// WatchDrains makes Snapshot report Syncing whenever fn does, so drains
// started outside the UI show up too.
func (s *Store) WatchDrains(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draining = fn
}

// SetOnline records the latest connectivity report.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Online = online
	s.snapshot.HasOnline = true
}

// SetPending records the offline queue length.
func (s *Store) SetPending(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.snapshot.Pending = n
}

// SetSyncing flags a sync requested from the UI as in flight.
func (s *Store) SetSyncing(syncing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Syncing = syncing
}

// RecordSync stores the outcome of a finished sync attempt. Skipped attempts
// only clear the syncing flag so earlier notices stay visible.
func (s *Store) RecordSync(res reconcile.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Syncing = false
	if res.Skipped {
		return
	}
	s.snapshot.LastSync = res
	s.snapshot.LastSyncAt = s.clock()
	s.snapshot.Notices = res.Notices()
}

// Notify replaces the visible notices with a single line.
func (s *Store) Notify(n reconcile.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notices = []reconcile.Notice{n}
}

// DismissNotices clears the visible notices.
func (s *Store) DismissNotices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notices = nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Notices = cloneNotices(s.snapshot.Notices)
	if s.draining != nil && s.draining() {
		snap.Syncing = true
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func cloneNotices(items []reconcile.Notice) []reconcile.Notice {
	if len(items) == 0 {
		return nil
	}
	dup := make([]reconcile.Notice, len(items))
	copy(dup, items)
	return dup
}
