// Package queue holds intake submissions captured while the remote store is
// unreachable.
//
// The queue is an ordered list persisted as one JSON blob under StorageKey
// through a storage.Storage port. The blob carries a version tag:
//
//	{"version":1,"items":[{"id":"…","data":{…},"timestamp":1717000000000}]}
//
// A bare JSON array (the format written before versioning) is still read and
// is rewritten as version 1 on the next mutation. Blobs from a newer version
// are ignored rather than guessed at.
//
// Storage errors never propagate: the in-memory queue stays authoritative for
// the session and the failure is logged.
package queue
