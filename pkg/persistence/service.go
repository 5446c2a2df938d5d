// Package persistence defines the PersistenceService boundary the domain
// engines depend on and ships a local bbolt-backed implementation of it.
//
// The spec treats the persistent key-value store as an external
// collaborator (§1: "Persistent key-value store (rocksdb/sled-style).
// Treated as a trait PersistenceService { load, upsert, delete, exists }").
// BoltService is a concrete, locally runnable stand-in for that
// collaborator using the exact on-disk key schema from SPEC_FULL.md §6, so
// the domain engines and their tests have something real to open, fetch
// from, and flush to.
package persistence

import "context"

// Service is the boundary the domain engines use to persist and load
// encoded CRDT documents. Implementations must be safe for concurrent use.
type Service interface {
	// Load returns the last-flushed (state_vector, doc_state) pair for
	// objectID owned by uid, or ok=false if nothing has been flushed yet.
	Load(ctx context.Context, uid int64, objectID string) (stateVector, docState []byte, ok bool, err error)

	// Exists reports whether objectID currently has stored state for uid
	// (written by Upsert or FlushDoc and not since removed by Delete).
	Exists(ctx context.Context, uid int64, objectID string) (bool, error)

	// Upsert appends an incremental update to objectID's update log. The
	// update log is replayed in order on the next Load-then-ApplyUpdate
	// cycle by the caller; FlushDoc compacts it away.
	Upsert(ctx context.Context, uid int64, objectID string, update []byte) error

	// PendingUpdates returns every update appended since the last flush,
	// in clock order.
	PendingUpdates(ctx context.Context, uid int64, objectID string) ([][]byte, error)

	// FlushDoc atomically rewrites the compacted (state_vector, doc_state)
	// pair and deletes the pending update log for objectID.
	FlushDoc(ctx context.Context, uid int64, objectID string, stateVector, docState []byte) error

	// Delete removes every key associated with objectID (doc state, state
	// vector, update log, and its oid mapping).
	Delete(ctx context.Context, uid int64, objectID string) error

	// Close releases any underlying resources (file handles, etc.).
	Close() error
}
