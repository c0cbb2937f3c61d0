// Package storage provides the small key/value port the offline queue
// persists through, with file, SQLite, Redis and in-memory backends.
package storage
