package storage

import "sync"

// Memory is a process-local Storage. Setting Fail makes every call return
// ErrUnavailable, which mimics a browser with storage disabled.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	fail   bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// SetFailing toggles failure mode.
func (m *Memory) SetFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// Writes reports how many successful SetItem/RemoveItem calls were made.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// GetItem reads the value stored under key.
func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", false, ErrUnavailable
	}
	value, ok := m.values[key]
	return value, ok, nil
}

// SetItem writes value under key.
func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrUnavailable
	}
	m.values[key] = value
	m.writes++
	return nil
}

// RemoveItem deletes key.
func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrUnavailable
	}
	delete(m.values, key)
	m.writes++
	return nil
}
