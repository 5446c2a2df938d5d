package crdt

import (
	"context"
	"fmt"
	"sync"
)

// Collab is one collaborative document: a root Map guarded by a single
// writer lock, with deep-observe callbacks fired on every committed
// Update.
type Collab interface {
	ObjectID() string

	// View runs fn against a read-only snapshot of the current root.
	// Concurrent Views may run together; a View excludes Updates.
	View(ctx context.Context, fn func(ReadTxn) error) error

	// Update runs fn against a private clone of the root. If fn
	// returns nil the clone is committed and diffed against the prior
	// root to produce the Events passed to observers; if fn returns
	// an error the clone is discarded and the document is unchanged.
	Update(ctx context.Context, origin CollabOrigin, fn func(WriteTxn) error) error

	// Observe registers cb for every future committed Update. The
	// returned func unregisters it.
	Observe(cb ObserverFunc) (unsubscribe func())

	// EncodeCollabV1 renders the current (state_vector, doc_state)
	// pair. When validate is true the encoded doc_state is
	// round-tripped through decode before returning, surfacing
	// encoder bugs as an error instead of a later, harder to diagnose
	// Load failure.
	EncodeCollabV1(validate bool) (EncodedCollab, error)

	// ApplyUpdate merges an update produced by EncodeCollabV1 (or a
	// prior Update's recorded diff) into the document. Updates whose
	// clock does not advance any client beyond the document's current
	// state vector are dropped (last-writer-wins over full snapshots,
	// since this substrate does not implement field-level CRDT merge).
	ApplyUpdate(update []byte) error

	// StateVector returns the current per-client clock, encoded the
	// same way EncodeCollabV1 encodes it.
	StateVector() []byte

	Close() error
}

type memCollab struct {
	mu        sync.RWMutex
	objectID  string
	root      *mapNode
	clock     map[string]uint64
	observers map[int]ObserverFunc
	nextObsID int
	closed    bool
}

// NewCollab constructs a standalone in-memory Collab. Most callers
// should go through a Store (see store.go) instead, which keys Collabs
// by object id the way the domain engines expect.
func NewCollab(objectID string) Collab {
	return &memCollab{
		objectID:  objectID,
		root:      newMapNode(),
		clock:     make(map[string]uint64),
		observers: make(map[int]ObserverFunc),
	}
}

func (c *memCollab) ObjectID() string { return c.objectID }

func (c *memCollab) View(_ context.Context, fn func(ReadTxn) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return fn(&readTxn{root: c.root})
}

func (c *memCollab) Update(_ context.Context, origin CollabOrigin, fn func(WriteTxn) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	clone := c.root.clone()
	if err := fn(&writeTxn{root: clone}); err != nil {
		return err
	}

	var events []Event
	diffMaps(nil, c.root, clone, &events)
	c.root = clone
	if origin.ClientID != "" {
		c.clock[origin.ClientID]++
	}

	if len(events) > 0 {
		for _, obs := range c.observers {
			obs(events, origin)
		}
	}
	return nil
}

func (c *memCollab) Observe(cb ObserverFunc) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = cb
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *memCollab) EncodeCollabV1(validate bool) (EncodedCollab, error) {
	c.mu.RLock()
	root := c.root
	clock := c.clock
	c.mu.RUnlock()

	docState, err := encodeSnapshot(root, clock)
	if err != nil {
		return EncodedCollab{}, fmt.Errorf("encode doc state: %w", err)
	}
	sv := stateVectorBytes(clock)

	if validate {
		if _, _, decErr := decodeSnapshot(docState); decErr != nil {
			return EncodedCollab{}, fmt.Errorf("validate encoded doc state: %w", decErr)
		}
	}

	return EncodedCollab{StateVector: sv, DocState: docState, Version: encodingVersion}, nil
}

func (c *memCollab) ApplyUpdate(update []byte) error {
	root, clock, err := decodeSnapshot(update)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if staleAgainst(c.clock, clock) {
		return nil
	}

	var events []Event
	diffMaps(nil, c.root, root, &events)
	c.root = root
	mergeClock(c.clock, clock)

	if len(events) > 0 {
		origin := CollabOrigin{Tag: "remote-update"}
		for _, obs := range c.observers {
			obs(events, origin)
		}
	}
	return nil
}

func (c *memCollab) StateVector() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return stateVectorBytes(c.clock)
}

func (c *memCollab) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.observers = nil
	return nil
}
