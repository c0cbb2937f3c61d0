package queue

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/SantanaDZ/cad-social/internal/clock"
	"github.com/SantanaDZ/cad-social/internal/storage"
)

// Store is the offline submission queue. The in-memory slice is authoritative
// for the running process; every mutation is mirrored to storage, and a
// storage failure only costs durability across restarts.
type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	key      string
	items    []Item
	lastBlob string

	// ids enqueued or removed in memory since the last successful write
	unsaved map[string]struct{}
	dropped map[string]struct{}

	clock  clock.Clock
	newID  func() string
	logger *slog.Logger

	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(int)
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDFunc overrides identifier generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithKey overrides the storage key (tests, multiple operators on one kiosk).
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New builds an empty queue over st. Call Load to hydrate it.
func New(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     StorageKey,
		clock:   clock.Real{},
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory queue with the persisted blob. A missing,
// unreadable or corrupt blob yields an empty queue.
func (s *Store) Load() {
	s.mu.Lock()
	s.items = s.readLocked()
	s.unsaved = nil
	s.dropped = nil
	n := len(s.items)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, n)
}

// Reload re-reads the blob if it differs from the last one this Store wrote.
// It returns true when the in-memory queue changed.
//
// Items this Store enqueued but never managed to persist are kept and
// appended after the blob's items; items it removed without persisting stay
// removed. A blob that fails to decode leaves the in-memory queue untouched.
func (s *Store) Reload() bool {
	s.mu.Lock()
	raw, ok, err := s.storage.GetItem(s.key)
	if err != nil || (ok && raw == s.lastBlob) || (!ok && s.lastBlob == "" && len(s.items) == 0) {
		s.mu.Unlock()
		return false
	}
	var disk []Item
	if ok {
		disk, err = s.decodeLocked(raw)
		if err != nil {
			s.mu.Unlock()
			s.logger.Warn("foreign offline queue blob unreadable; keeping in-memory queue", slog.String("error", err.Error()))
			return false
		}
	}
	s.lastBlob = raw
	merged := s.mergeLocked(disk)
	changed := !sameItems(s.items, merged)
	s.items = merged
	if len(s.unsaved) > 0 || len(s.dropped) > 0 {
		s.persistLocked()
	}
	n := len(s.items)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if changed {
		notify(subs, n)
	}
	return changed
}

func sameItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Enqueue appends payload and persists the queue. The returned error only
// reports payloads that cannot be serialized; persistence failures are
// logged and swallowed.
func (s *Store) Enqueue(payload map[string]any) (string, error) {
	data, err := normalizePayload(payload)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	item := Item{ID: s.newID(), Payload: data, EnqueuedAt: s.clock.Now()}
	s.items = append(s.items, item)
	s.markLocked(&s.unsaved, item.ID)
	s.persistLocked()
	n := len(s.items)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Info("submission queued offline", slog.String("queue_id", item.ID), slog.Int("pending", n))
	notify(subs, n)
	return item.ID, nil
}

// Remove deletes the item with id. Unknown ids are ignored and cause no write.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	if _, ok := s.unsaved[id]; ok {
		delete(s.unsaved, id)
	} else {
		s.markLocked(&s.dropped, id)
	}
	s.persistLocked()
	n := len(s.items)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, n)
}

// Clear discards every queued item and removes the persisted blob.
func (s *Store) Clear() {
	s.mu.Lock()
	old := s.items
	s.items = nil
	s.lastBlob = ""
	s.unsaved = nil
	s.dropped = nil
	if err := s.storage.RemoveItem(s.key); err != nil {
		s.logger.Warn("offline queue blob could not be removed", slog.String("error", err.Error()))
		for _, item := range old {
			s.markLocked(&s.dropped, item.ID)
		}
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Info("offline queue discarded")
	notify(subs, 0)
}

// Items returns a deep copy of the queue in FIFO order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of queued items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn to receive the queue length after every mutation.
// Callbacks run synchronously on the mutating goroutine, outside the lock.
func (s *Store) Subscribe(fn func(n int)) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) readLocked() []Item {
	raw, ok, err := s.storage.GetItem(s.key)
	if err != nil {
		s.logger.Warn("offline queue storage unavailable; starting empty", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		s.lastBlob = ""
		return nil
	}
	items, err := s.decodeLocked(raw)
	if err != nil {
		s.logger.Warn("offline queue blob unreadable; starting empty", slog.String("error", err.Error()))
		return nil
	}
	s.lastBlob = raw
	return items
}

func (s *Store) decodeLocked(raw string) ([]Item, error) {
	items, version, err := decodeBlob(raw)
	if err != nil {
		return nil, fmt.Errorf("decode version %d: %w", version, err)
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = s.newID()
		}
	}
	if version < CurrentVersion && len(items) > 0 {
		s.logger.Info("legacy offline queue blob loaded", slog.Int("version", version), slog.Int("items", len(items)))
	}
	return items, nil
}

// mergeLocked combines a freshly read blob with the local changes that never
// reached storage.
func (s *Store) mergeLocked(disk []Item) []Item {
	merged := make([]Item, 0, len(disk)+len(s.unsaved))
	seen := make(map[string]struct{}, len(disk))
	for _, item := range disk {
		if _, gone := s.dropped[item.ID]; gone {
			continue
		}
		seen[item.ID] = struct{}{}
		merged = append(merged, item)
	}
	for _, item := range s.items {
		if _, pending := s.unsaved[item.ID]; !pending {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

func (s *Store) markLocked(set *map[string]struct{}, id string) {
	if *set == nil {
		*set = make(map[string]struct{})
	}
	(*set)[id] = struct{}{}
}

func (s *Store) persistLocked() {
	blob, err := encodeBlob(s.items)
	if err != nil {
		s.logger.Warn("offline queue could not be encoded", slog.String("error", err.Error()))
		return
	}
	if err := s.storage.SetItem(s.key, blob); err != nil {
		s.logger.Warn("offline queue not persisted; items survive only this session",
			slog.String("error", err.Error()),
			slog.Int("pending", len(s.items)),
		)
		return
	}
	s.lastBlob = blob
	s.unsaved = nil
	s.dropped = nil
}

func (s *Store) subscribersLocked() []func(int) {
	if len(s.subs) == 0 {
		return nil
	}
	fns := make([]func(int), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	return fns
}

func notify(fns []func(int), n int) {
	for _, fn := range fns {
		fn(n)
	}
}
