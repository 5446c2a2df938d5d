package crdt

// ReadTxn gives read-only access to a document's root container, valid
// for the lifetime of one View call.
type ReadTxn interface {
	Root() Map
}

// WriteTxn gives mutable access to a document's root container, valid
// for the lifetime of one Update call. Mutations are applied to a
// private clone and only become visible to other readers if the
// Update callback returns nil.
type WriteTxn interface {
	Root() Map
}

type readTxn struct {
	root Map
}

func (t *readTxn) Root() Map { return t.root }

type writeTxn struct {
	root Map
}

func (t *writeTxn) Root() Map { return t.root }
