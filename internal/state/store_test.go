package state

import (
	"errors"
	"testing"
	"time"

	"github.com/SantanaDZ/cad-social/internal/reconcile"
)

func TestStore_ZeroValue(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.HasOnline || snap.IsOffline() {
		t.Fatalf("zero snapshot should have unknown connectivity, got %#v", snap)
	}
	if snap.Pending != 0 || snap.Syncing || snap.Notices != nil {
		t.Fatalf("zero snapshot = %#v", snap)
	}
}

func TestStore_Connectivity(t *testing.T) {
	var s Store

	s.SetOnline(false)
	if !s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false after SetOnline(false)")
	}
	s.SetOnline(true)
	snap := s.Snapshot()
	if snap.IsOffline() || !snap.Online {
		t.Fatalf("snapshot = %#v, want online", snap)
	}
}

func TestStore_PendingNeverNegative(t *testing.T) {
	var s Store
	s.SetPending(3)
	if got := s.Snapshot().Pending; got != 3 {
		t.Fatalf("Pending = %d, want 3", got)
	}
	s.SetPending(-1)
	if got := s.Snapshot().Pending; got != 0 {
		t.Fatalf("Pending = %d, want 0", got)
	}
}

func TestStore_RecordSyncAndSnapshotClone(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Store{now: func() time.Time { return at }}

	s.SetSyncing(true)
	s.RecordSync(reconcile.Result{Succeeded: 2, Failed: 1})

	snap := s.Snapshot()
	if snap.Syncing {
		t.Fatal("Syncing should clear after RecordSync")
	}
	if !snap.LastSyncAt.Equal(at) || snap.LastSync.Succeeded != 2 {
		t.Fatalf("LastSync = %#v at %v", snap.LastSync, snap.LastSyncAt)
	}
	if len(snap.Notices) != 2 || snap.Notices[0].Error || !snap.Notices[1].Error {
		t.Fatalf("Notices = %#v, want success then failure", snap.Notices)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Notices[0].Text = "mutated"
	if s.Snapshot().Notices[0].Text == "mutated" {
		t.Fatal("Snapshot should clone notices")
	}
}

func TestStore_SkippedSyncKeepsPreviousNotices(t *testing.T) {
	var s Store

	s.RecordSync(reconcile.Result{Aborted: true, Err: errors.New("no session")})
	prev := s.Snapshot()

	s.SetSyncing(true)
	s.RecordSync(reconcile.Result{Skipped: true, SkipReason: reconcile.SkipInFlight})

	snap := s.Snapshot()
	if snap.Syncing {
		t.Fatal("Syncing should clear after a skipped attempt")
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Text != reconcile.MessageAborted {
		t.Fatalf("Notices = %#v, want the abort notice kept", snap.Notices)
	}
	if !snap.LastSyncAt.Equal(prev.LastSyncAt) {
		t.Fatalf("LastSyncAt changed on skipped attempt")
	}
}

func TestStore_NotifyAndDismiss(t *testing.T) {
	var s Store

	s.Notify(reconcile.Notice{Text: "Inscrição salva com sucesso!"})
	if n := s.Snapshot().Notices; len(n) != 1 || n[0].Text != "Inscrição salva com sucesso!" {
		t.Fatalf("Notices = %#v", n)
	}
	s.DismissNotices()
	if n := s.Snapshot().Notices; n != nil {
		t.Fatalf("Notices = %#v, want nil", n)
	}
}

func TestStore_WatchDrainsReportsBackgroundSync(t *testing.T) {
	var (
		s        Store
		draining bool
	)
	s.WatchDrains(func() bool { return draining })

	if s.Snapshot().Syncing {
		t.Fatal("Syncing = true with no drain running")
	}

	draining = true
	if !s.Snapshot().Syncing {
		t.Fatal("background drain not reported")
	}

	// a manual sync finishing mid-drain must not hide the running drain
	s.SetSyncing(true)
	s.RecordSync(reconcile.Result{Skipped: true, SkipReason: reconcile.SkipInFlight})
	if !s.Snapshot().Syncing {
		t.Fatal("Syncing cleared while a drain is still running")
	}

	draining = false
	if s.Snapshot().Syncing {
		t.Fatal("Syncing still set after the drain finished")
	}
}
