package crdt

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/collabkit/pkg/persistence"
)

// Store opens and caches Collabs for one uid, loading each from a
// persistence.Service on first use and appending an update for every
// committed write. It is the thing domain engines (folder, database,
// document) actually hold onto, rather than a bare Collab.
type Store struct {
	uid   int64
	svc   persistence.Service
	mu    sync.Mutex
	open  map[string]Collab
	debug bool
}

// NewStore builds a Store backed by svc for uid. svc may be nil, in
// which case Collabs are purely in-memory and never persisted — useful
// for tests that don't care about durability.
func NewStore(uid int64, svc persistence.Service) *Store {
	return &Store{uid: uid, svc: svc, open: make(map[string]Collab)}
}

// Open returns the Collab for objectID, creating it (and, if svc is
// set, loading any persisted state for it) on first call.
func (s *Store) Open(ctx context.Context, objectID string) (Collab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.open[objectID]; ok {
		return c, nil
	}

	mc := &memCollab{
		objectID:  objectID,
		root:      newMapNode(),
		clock:     make(map[string]uint64),
		observers: make(map[int]ObserverFunc),
	}

	if s.svc != nil {
		if err := s.hydrate(ctx, objectID, mc); err != nil {
			return nil, err
		}
	}

	tracked := &persistingCollab{memCollab: mc, store: s, objectID: objectID}
	s.open[objectID] = tracked
	return tracked, nil
}

func (s *Store) hydrate(ctx context.Context, objectID string, mc *memCollab) error {
	sv, docState, ok, err := s.svc.Load(ctx, s.uid, objectID)
	if err != nil {
		return fmt.Errorf("load %s: %w", objectID, err)
	}
	if ok && len(docState) > 0 {
		root, clock, err := decodeSnapshot(docState)
		if err != nil {
			return fmt.Errorf("decode doc state for %s: %w", objectID, err)
		}
		mc.root = root
		mc.clock = clock
		_ = sv // the decoded clock already carries the same information
	}

	pending, err := s.svc.PendingUpdates(ctx, s.uid, objectID)
	if err != nil {
		return fmt.Errorf("load pending updates for %s: %w", objectID, err)
	}
	for _, update := range pending {
		root, clock, err := decodeSnapshot(update)
		if err != nil {
			return fmt.Errorf("decode pending update for %s: %w", objectID, err)
		}
		if staleAgainst(mc.clock, clock) {
			continue
		}
		mc.root = root
		mergeClock(mc.clock, clock)
	}
	return nil
}

// Exists reports whether objectID has any state — either already open
// in this Store, or persisted — without opening (and so without
// materializing an empty document for) it.
func (s *Store) Exists(ctx context.Context, objectID string) (bool, error) {
	s.mu.Lock()
	_, already := s.open[objectID]
	svc := s.svc
	s.mu.Unlock()

	if already {
		return true, nil
	}
	if svc == nil {
		return false, nil
	}
	_, _, ok, err := svc.Load(ctx, s.uid, objectID)
	return ok, err
}

// Flush compacts objectID's doc state and persists it, discarding the
// pending-update log the way PersistenceService.FlushDoc always does.
func (s *Store) Flush(ctx context.Context, objectID string) error {
	s.mu.Lock()
	c, ok := s.open[objectID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if s.svc == nil {
		return nil
	}

	encoded, err := c.EncodeCollabV1(false)
	if err != nil {
		return fmt.Errorf("encode %s for flush: %w", objectID, err)
	}
	return s.svc.FlushDoc(ctx, s.uid, objectID, encoded.StateVector, encoded.DocState)
}

// Delete removes objectID from both the in-memory cache and the
// backing persistence service.
func (s *Store) Delete(ctx context.Context, objectID string) error {
	s.mu.Lock()
	delete(s.open, objectID)
	s.mu.Unlock()

	if s.svc == nil {
		return nil
	}
	return s.svc.Delete(ctx, s.uid, objectID)
}

// persistingCollab wraps memCollab so every committed Update also
// appends its resulting snapshot to the backing persistence log.
type persistingCollab struct {
	*memCollab
	store    *Store
	objectID string
}

func (p *persistingCollab) Update(ctx context.Context, origin CollabOrigin, fn func(WriteTxn) error) error {
	if err := p.memCollab.Update(ctx, origin, fn); err != nil {
		return err
	}
	if p.store.svc == nil {
		return nil
	}
	encoded, err := p.memCollab.EncodeCollabV1(false)
	if err != nil {
		return fmt.Errorf("encode %s update: %w", p.objectID, err)
	}
	return p.store.svc.Upsert(ctx, p.store.uid, p.objectID, encoded.DocState)
}
