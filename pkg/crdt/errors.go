package crdt

import "errors"

// ErrTxnConflict would be returned by a substrate using optimistic
// concurrency when a write transaction is rejected because the
// document changed underneath it. memsubstrate serializes writers with
// a single mutex instead, so it never returns this error; a substrate
// backed by a real CRDT core would.
var ErrTxnConflict = errors.New("crdt: transaction conflict")

// ErrCorruptUpdate is returned by ApplyUpdate when the update payload
// cannot be decoded.
var ErrCorruptUpdate = errors.New("crdt: corrupt update payload")

// ErrClosed is returned by any operation on a Collab after Close.
var ErrClosed = errors.New("crdt: collab is closed")
