package queue

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SantanaDZ/cad-social/internal/clock"
	"github.com/SantanaDZ/cad-social/internal/storage"
)

func newTestStore(t *testing.T, st storage.Storage) *Store {
	t.Helper()
	seq := 0
	return New(st,
		WithClock(clock.Fixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))),
		WithIDFunc(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestStore_EnqueuePersistsAndReturnsID(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)

	id, err := s.Enqueue(map[string]any{"nome_completo": "Ana Silva", "cidade": "Recife"})
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if id != "id-1" {
		t.Fatalf("id = %q, want id-1", id)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	raw, ok, err := mem.GetItem(StorageKey)
	if err != nil || !ok {
		t.Fatalf("blob missing: ok=%v err=%v", ok, err)
	}
	if !strings.HasPrefix(raw, `{"version":1,`) {
		t.Fatalf("blob = %s, want versioned envelope", raw)
	}
}

func TestStore_OrderPreservedAcrossReload(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	for i := 0; i < 5; i++ {
		if _, err := s.Enqueue(map[string]any{"n": i}); err != nil {
			t.Fatalf("Enqueue returned error: %v", err)
		}
	}

	restarted := newTestStore(t, mem)
	restarted.Load()

	want := []string{"id-1", "id-2", "id-3", "id-4", "id-5"}
	if got := ids(restarted.Items()); !reflect.DeepEqual(got, want) {
		t.Fatalf("order after reload = %v, want %v", got, want)
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, want) {
		t.Fatalf("in-memory order = %v, want %v", got, want)
	}
}

func TestStore_RoundTripPreservesPayloadAndID(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	payload := map[string]any{
		"nome_completo":        "Ana Silva",
		"cidade":               "Recife",
		"membros_familia":      4,
		"possui_beneficio_gov": true,
	}
	id, err := s.Enqueue(payload)
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	restarted := New(mem, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	restarted.Load()
	items := restarted.Items()
	if len(items) != 1 {
		t.Fatalf("items after reload = %d, want 1", len(items))
	}
	if items[0].ID != id {
		t.Fatalf("id after reload = %q, want %q", items[0].ID, id)
	}
	want := map[string]any{
		"nome_completo":        "Ana Silva",
		"cidade":               "Recife",
		"membros_familia":      float64(4),
		"possui_beneficio_gov": true,
	}
	if !reflect.DeepEqual(items[0].Payload, want) {
		t.Fatalf("payload after reload = %#v, want %#v", items[0].Payload, want)
	}
	if !items[0].EnqueuedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("EnqueuedAt = %v", items[0].EnqueuedAt)
	}
}

func TestStore_RemoveUnknownIDIsNoop(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"a": 1})
	_, _ = s.Enqueue(map[string]any{"b": 2})
	writes := mem.Writes()
	before, _, _ := mem.GetItem(StorageKey)

	s.Remove("does-not-exist")

	if got := ids(s.Items()); !reflect.DeepEqual(got, []string{"id-1", "id-2"}) {
		t.Fatalf("items = %v, want unchanged", got)
	}
	if mem.Writes() != writes {
		t.Fatalf("Remove of unknown id wrote to storage")
	}
	after, _, _ := mem.GetItem(StorageKey)
	if before != after {
		t.Fatalf("blob changed: %s -> %s", before, after)
	}
}

func TestStore_RemoveRepersists(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"a": 1})
	_, _ = s.Enqueue(map[string]any{"b": 2})
	_, _ = s.Enqueue(map[string]any{"c": 3})

	s.Remove("id-2")

	restarted := newTestStore(t, mem)
	restarted.Load()
	if got := ids(restarted.Items()); !reflect.DeepEqual(got, []string{"id-1", "id-3"}) {
		t.Fatalf("items after remove+reload = %v", got)
	}
}

func TestStore_ClearRemovesBlob(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"a": 1})

	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("Len after Clear = %d", s.Len())
	}
	if _, ok, _ := mem.GetItem(StorageKey); ok {
		t.Fatalf("blob still present after Clear")
	}
}

func TestStore_PersistenceFailureKeepsMemory(t *testing.T) {
	mem := storage.NewMemory()
	mem.SetFailing(true)
	s := newTestStore(t, mem)

	id, err := s.Enqueue(map[string]any{"nome_completo": "Ana"})
	if err != nil {
		t.Fatalf("Enqueue returned error on storage failure: %v", err)
	}
	if s.Len() != 1 || s.Items()[0].ID != id {
		t.Fatalf("in-memory queue lost item: %v", s.Items())
	}

	s.Remove(id)
	if s.Len() != 0 {
		t.Fatalf("Remove did not update memory during storage failure")
	}
	s.Clear()
}

func TestStore_LoadToleratesMissingCorruptAndFutureBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob string
		set  bool
	}{
		{name: "missing"},
		{name: "corrupt", blob: "{not json", set: true},
		{name: "scalar", blob: "42", set: true},
		{name: "future version", blob: `{"version":99,"items":[{"id":"x","data":{},"timestamp":0}]}`, set: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemory()
			if tt.set {
				_ = mem.SetItem(StorageKey, tt.blob)
			}
			s := newTestStore(t, mem)
			s.Load()
			if s.Len() != 0 {
				t.Fatalf("Len = %d, want 0", s.Len())
			}
		})
	}

	mem := storage.NewMemory()
	mem.SetFailing(true)
	s := newTestStore(t, mem)
	s.Load()
	if s.Len() != 0 {
		t.Fatalf("Len with failing storage = %d, want 0", s.Len())
	}
}

func TestStore_LoadsLegacyArrayAndUpgradesOnWrite(t *testing.T) {
	mem := storage.NewMemory()
	legacy := `[{"id":"old-1","data":{"nome_completo":"Joao"},"timestamp":1700000000000},{"data":{"nome_completo":"Maria"},"timestamp":1700000001000}]`
	_ = mem.SetItem(StorageKey, legacy)

	s := newTestStore(t, mem)
	s.Load()
	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != "old-1" {
		t.Fatalf("first id = %q, want old-1", items[0].ID)
	}
	if items[1].ID == "" {
		t.Fatalf("missing id was not regenerated")
	}
	if items[0].Payload["nome_completo"] != "Joao" {
		t.Fatalf("payload = %#v", items[0].Payload)
	}

	s.Remove("old-1")
	raw, _, _ := mem.GetItem(StorageKey)
	if !strings.HasPrefix(raw, `{"version":1,`) {
		t.Fatalf("blob not upgraded: %s", raw)
	}
}

func TestStore_ItemsAreDeepCopies(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	original := map[string]any{"endereco": map[string]any{"rua": "A"}}
	_, _ = s.Enqueue(original)

	original["endereco"].(map[string]any)["rua"] = "changed by caller"
	items := s.Items()
	items[0].Payload["endereco"].(map[string]any)["rua"] = "changed by reader"

	got := s.Items()[0].Payload["endereco"].(map[string]any)["rua"]
	if got != "A" {
		t.Fatalf("queued payload mutated: %v", got)
	}
}

func TestStore_EnqueueRejectsUnencodablePayload(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	if _, err := s.Enqueue(map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatalf("expected error for unencodable payload")
	}
	if s.Len() != 0 {
		t.Fatalf("unencodable payload was queued")
	}
}

func TestStore_SubscribeReceivesLengths(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	var got []int
	unsubscribe := s.Subscribe(func(n int) { got = append(got, n) })

	_, _ = s.Enqueue(map[string]any{"a": 1})
	_, _ = s.Enqueue(map[string]any{"b": 2})
	s.Remove("id-1")
	s.Clear()
	unsubscribe()
	unsubscribe()
	_, _ = s.Enqueue(map[string]any{"c": 3})

	if want := []int{1, 2, 1, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("lengths = %v, want %v", got, want)
	}
}

func TestStore_ReloadPicksUpForeignWrites(t *testing.T) {
	mem := storage.NewMemory()
	a := newTestStore(t, mem)
	_, _ = a.Enqueue(map[string]any{"a": 1})

	if a.Reload() {
		t.Fatalf("Reload reported change for own write")
	}

	b := New(mem, WithKey(StorageKey), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	b.Load()
	_, _ = b.Enqueue(map[string]any{"b": 2})

	if !a.Reload() {
		t.Fatalf("Reload did not report foreign write")
	}
	if a.Len() != 2 {
		t.Fatalf("Len after reload = %d, want 2", a.Len())
	}
}

func TestStore_ReloadKeepsUnpersistedItems(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"nome_completo": "Ana Silva"})

	mem.SetFailing(true)
	_, _ = s.Enqueue(map[string]any{"nome_completo": "Bruno Costa"})
	mem.SetFailing(false)

	// another process drained the queue it saw on disk
	if err := mem.SetItem(StorageKey, `{"version":1,"items":[]}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	if !s.Reload() {
		t.Fatalf("Reload did not report foreign write")
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []string{"id-2"}) {
		t.Fatalf("items after reload = %v, want [id-2]", got)
	}

	fresh := newTestStore(t, mem)
	fresh.Load()
	if fresh.Len() != 1 {
		t.Fatalf("unpersisted item not written back: Len = %d", fresh.Len())
	}
}

func TestStore_ReloadMergesForeignItemsBeforeUnpersisted(t *testing.T) {
	mem := storage.NewMemory()
	a := newTestStore(t, mem)

	mem.SetFailing(true)
	_, _ = a.Enqueue(map[string]any{"a": 1})
	mem.SetFailing(false)

	b := New(mem, WithIDFunc(func() string { return "b-1" }), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	b.Load()
	_, _ = b.Enqueue(map[string]any{"b": 2})

	if !a.Reload() {
		t.Fatalf("Reload did not report foreign write")
	}
	if got := ids(a.Items()); !reflect.DeepEqual(got, []string{"b-1", "id-1"}) {
		t.Fatalf("items = %v, want [b-1 id-1]", got)
	}
}

func TestStore_ReloadHonoursUnpersistedRemoval(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"a": 1})
	_, _ = s.Enqueue(map[string]any{"b": 2})

	mem.SetFailing(true)
	s.Remove("id-1")
	mem.SetFailing(false)

	b := New(mem, WithIDFunc(func() string { return "b-1" }), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	b.Load()
	_, _ = b.Enqueue(map[string]any{"c": 3})

	if !s.Reload() {
		t.Fatalf("Reload did not report foreign write")
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []string{"id-2", "b-1"}) {
		t.Fatalf("items = %v, want [id-2 b-1]", got)
	}
}

func TestStore_ReloadIgnoresCorruptForeignBlob(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(t, mem)
	_, _ = s.Enqueue(map[string]any{"a": 1})

	if err := mem.SetItem(StorageKey, "{not json"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	if s.Reload() {
		t.Fatalf("Reload reported change for corrupt blob")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
