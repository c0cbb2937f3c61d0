package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Storage is a synchronous string key/value store that survives restarts.
// Every method may fail (disk full, locked file, unreachable server); callers
// are expected to degrade rather than crash.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrUnavailable is returned by backends that have been disabled or closed.
var ErrUnavailable = errors.New("storage unavailable")

// Options select and configure a backend.
type Options struct {
	Backend  string
	Dir      string // file and sqlite backends
	RedisURL string
	Prefix   string // redis key prefix
}

// Open builds the backend named in opts. The returned closer is never nil.
func Open(opts Options) (Storage, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		fs, err := NewFile(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case BackendSQLite:
		db, err := OpenSQLite(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	case BackendRedis:
		rs, err := NewRedis(opts.RedisURL, opts.Prefix)
		if err != nil {
			return nil, noop, err
		}
		return rs, rs.Close, nil
	case BackendMemory:
		return NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("storage backend: unsupported value %q", opts.Backend)
	}
}
