package database

import (
	"context"
	"errors"
	"sync"

	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/events"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRowCacheSize is RowBlock's LRU capacity. Callers that want a
// different capacity (collabctl wires this from its Config) must set
// this before opening any database, since it's read once per RowBlock.
var DefaultRowCacheSize = 1000

// bulkCreateThreshold is the CreateRows row count above which row
// creation fans out across a worker pool instead of running inline.
const bulkCreateThreshold = 100

// rowCreateWorkers bounds how many rows CreateRows opens concurrently
// once bulkCreateThreshold is crossed.
const rowCreateWorkers = 8

// CacheEventKind classifies a CacheEvent.
type CacheEventKind int

const (
	// CacheEventDidFetchRow reports that one or more rows requested
	// via GetRow/BatchLoadRows finished an asynchronous fetch.
	CacheEventDidFetchRow CacheEventKind = iota
)

// RowDetail is one row's fetch outcome, reported in a CacheEvent.
type RowDetail struct {
	RowID types.RowID
	Row   RowData
	Found bool
}

// CacheEvent is published by RowBlock when a background fetch
// completes.
type CacheEvent struct {
	Kind CacheEventKind
	Rows []RowDetail
}

func rowObjectID(id types.RowID) string { return "row:" + string(id) }

// RowBlock is the cached, async-fetching accessor every view reads
// rows through: an LRU of up to 1000 open DatabaseRows plus the
// RowTaskController that fills cache misses in the background.
type RowBlock struct {
	databaseID types.DatabaseID
	store      *crdt.Store

	mu    sync.Mutex
	cache *lru.Cache[types.RowID, *DatabaseRow]

	tasks  *RowTaskController
	broker *events.Broker[CacheEvent]
}

// NewRowBlock constructs a RowBlock for databaseID backed by store.
func NewRowBlock(databaseID types.DatabaseID, store *crdt.Store) *RowBlock {
	cache, _ := lru.New[types.RowID, *DatabaseRow](DefaultRowCacheSize)
	rb := &RowBlock{
		databaseID: databaseID,
		store:      store,
		cache:      cache,
		broker:     events.NewBroker[CacheEvent](16),
	}
	rb.broker.Start()
	rb.tasks = NewRowTaskController(rb.openFromPersistence)
	return rb
}

// Close stops the background fetch worker and event broker.
func (rb *RowBlock) Close() {
	rb.tasks.Stop()
	rb.broker.Stop()
}

// Observe subscribes to CacheEvent notifications.
func (rb *RowBlock) Observe() events.Subscriber[CacheEvent] { return rb.broker.Subscribe() }

// Unobserve cancels a subscription returned by Observe.
func (rb *RowBlock) Unobserve(sub events.Subscriber[CacheEvent]) { rb.broker.Unsubscribe(sub) }

func (rb *RowBlock) openFromPersistence(ctx context.Context, rowID types.RowID) (*DatabaseRow, error) {
	exists, err := rb.store.Exists(ctx, rowObjectID(rowID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, collaberrors.New(collaberrors.KindNotFound, string(rowID))
	}
	collab, err := rb.store.Open(ctx, rowObjectID(rowID))
	if err != nil {
		return nil, err
	}
	return NewRow(collab, rb.store, rowID, rb.databaseID), nil
}

func (rb *RowBlock) put(row *DatabaseRow) {
	rb.mu.Lock()
	rb.cache.Add(row.ID(), row)
	rb.mu.Unlock()
}

func (rb *RowBlock) get(id types.RowID) (*DatabaseRow, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.cache.Get(id)
}

// CreateRow opens (creating on first use) the row and inserts it into
// cache, returning its RowOrder.
func (rb *RowBlock) CreateRow(ctx context.Context, id types.RowID) (RowOrder, error) {
	collab, err := rb.store.Open(ctx, rowObjectID(id))
	if err != nil {
		return RowOrder{}, err
	}
	row := NewRow(collab, rb.store, id, rb.databaseID)
	rb.put(row)
	row.publish(RowChangeInsert, nil)
	return RowOrder{RowID: id, Height: defaultRowHeight}, nil
}

// CreateRows creates every id in ids, fanning out across a worker
// pool once len(ids) exceeds bulkCreateThreshold; otherwise it creates
// them inline. Both paths block until every row has been created; it
// does not return before the rows exist. The inline path stops at the
// first error and returns no orders; the fan-out path creates the rest
// and returns every RowOrder together with the first error seen.
func (rb *RowBlock) CreateRows(ctx context.Context, ids []types.RowID) ([]RowOrder, error) {
	orders := make([]RowOrder, len(ids))
	for i, id := range ids {
		orders[i] = RowOrder{RowID: id}
	}

	if len(ids) <= bulkCreateThreshold {
		for _, id := range ids {
			if _, err := rb.CreateRow(ctx, id); err != nil {
				return nil, err
			}
		}
		return orders, nil
	}

	sem := make(chan struct{}, rowCreateWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	logger := log.WithComponent("rowblock")

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id types.RowID) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := rb.CreateRow(ctx, id); err != nil {
				logger.Warn().Err(err).Str("row_id", string(id)).Msg("create row failed in worker pool")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return orders, firstErr
}

// GetRow returns the row for id. A cache hit returns immediately; a
// miss that exists in persistence is opened synchronously; a miss
// that is entirely absent enqueues a background FetchRow and returns
// an empty placeholder immediately, emitting CacheEventDidFetchRow
// once the fetch (successful or not) completes.
func (rb *RowBlock) GetRow(ctx context.Context, id types.RowID) (RowData, error) {
	if row, ok := rb.get(id); ok {
		return row.GetRow(ctx)
	}

	exists, err := rb.store.Exists(ctx, rowObjectID(id))
	if err != nil {
		return RowData{}, err
	}
	if exists {
		row, err := rb.openFromPersistence(ctx, id)
		if err != nil {
			return RowData{}, err
		}
		rb.put(row)
		return row.GetRow(ctx)
	}

	reply := rb.tasks.FetchRow(id)
	go rb.awaitSingleFetch(id, reply)
	return RowData{ID: id, DatabaseID: rb.databaseID, Cells: map[types.FieldID]string{}}, nil
}

func (rb *RowBlock) awaitSingleFetch(id types.RowID, reply <-chan *DatabaseRow) {
	row, ok := <-reply
	detail := RowDetail{RowID: id}
	if ok && row != nil {
		rb.put(row)
		data, err := row.GetRow(context.Background())
		if err == nil {
			detail.Row = data
			detail.Found = true
		}
	}
	rb.broker.Publish(CacheEvent{Kind: CacheEventDidFetchRow, Rows: []RowDetail{detail}})
}

// BatchLoadRows enqueues a batch fetch for every id not already cached.
// Completions trickle in as a single CacheEventDidFetchRow carrying
// every row in the batch.
func (rb *RowBlock) BatchLoadRows(ids []types.RowID) {
	missing := make([]types.RowID, 0, len(ids))
	for _, id := range ids {
		if _, ok := rb.get(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}
	reply := rb.tasks.BatchFetchRow(missing)
	go func() {
		results, ok := <-reply
		if !ok {
			return
		}
		details := make([]RowDetail, 0, len(results))
		for _, res := range results {
			detail := RowDetail{RowID: res.RowID, Found: res.Found}
			if res.Found && res.Row != nil {
				rb.put(res.Row)
				if data, err := res.Row.GetRow(context.Background()); err == nil {
					detail.Row = data
				}
			}
			details = append(details, detail)
		}
		rb.broker.Publish(CacheEvent{Kind: CacheEventDidFetchRow, Rows: details})
	}()
}

// Exists reports whether id has ever been persisted, without opening
// or caching it.
func (rb *RowBlock) Exists(ctx context.Context, id types.RowID) (bool, error) {
	if _, ok := rb.get(id); ok {
		return true, nil
	}
	return rb.store.Exists(ctx, rowObjectID(id))
}

// DeleteRow removes id from both cache and persistence.
func (rb *RowBlock) DeleteRow(ctx context.Context, id types.RowID) error {
	row, ok := rb.get(id)
	if !ok {
		var err error
		row, err = rb.openFromPersistence(ctx, id)
		if err != nil {
			if errors.Is(err, collaberrors.ErrNotFound) {
				return nil
			}
			return err
		}
	}
	rb.mu.Lock()
	rb.cache.Remove(id)
	rb.mu.Unlock()
	return row.Delete(ctx)
}

// UpdateRow applies f to id's cells in one transaction.
func (rb *RowBlock) UpdateRow(ctx context.Context, id types.RowID, f func(*RowMutator)) error {
	row, err := rb.ensure(ctx, id)
	if err != nil {
		return err
	}
	return row.Update(ctx, f)
}

// UpdateRowMeta applies f to id's height/visibility.
func (rb *RowBlock) UpdateRowMeta(ctx context.Context, id types.RowID, f func(*RowMutator)) error {
	row, err := rb.ensure(ctx, id)
	if err != nil {
		return err
	}
	return row.UpdateMeta(ctx, f)
}

func (rb *RowBlock) ensure(ctx context.Context, id types.RowID) (*DatabaseRow, error) {
	if row, ok := rb.get(id); ok {
		return row, nil
	}
	row, err := rb.openFromPersistence(ctx, id)
	if err != nil {
		return nil, err
	}
	rb.put(row)
	return row, nil
}

// CloseRows evicts ids from cache without deleting their persisted state.
func (rb *RowBlock) CloseRows(ids []types.RowID) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for _, id := range ids {
		rb.cache.Remove(id)
	}
}

// GetRowsFromRowOrders fans GetRow out across orders, preserving
// order. Rows that are missing entirely still materialize as empty
// placeholders (the same contract GetRow itself has).
func (rb *RowBlock) GetRowsFromRowOrders(ctx context.Context, orders []RowOrder) ([]RowData, error) {
	out := make([]RowData, len(orders))
	for i, o := range orders {
		data, err := rb.GetRow(ctx, o.RowID)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}
