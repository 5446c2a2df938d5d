// Package crdt defines the collaborative-substrate contract collabkit's
// domain engines are built against (SPEC_FULL.md §4.1: a transactional
// Map/Array/Any document tree with deep-observe callbacks and
// encode/decode of updates and state vectors) and ships memsubstrate, an
// in-memory reference implementation of it.
//
// Real CRDT merge semantics (concurrent-edit convergence, delta
// compression) are explicitly out of scope here; memsubstrate instead
// gives each document a single writer lock and serializes updates as
// full-state snapshots, which is enough to exercise every domain engine
// operation and persistence round-trip without implementing a merge
// algorithm. A production substrate would slot in behind the same
// Collab/Map/Array interfaces.
//
// The read/write entry points are named View and Update, deliberately
// echoing bbolt's transaction API (see pkg/persistence), since every
// other part of this codebase that wraps a mutex around a tree reaches
// for that shape.
package crdt
