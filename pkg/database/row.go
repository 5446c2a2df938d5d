package database

import (
	"context"
	"sync"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/events"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/types"
)

// defaultRowHeight is the height a freshly-created row renders at
// before any explicit resize (spec scenario S1).
const defaultRowHeight = 60

// RowChangeKind classifies a RowChange notification.
type RowChangeKind int

const (
	RowChangeInsert RowChangeKind = iota
	RowChangeUpdate
	RowChangeDelete
)

// RowChange is published by a DatabaseRow after every committed write.
type RowChange struct {
	RowID        types.RowID
	Kind         RowChangeKind
	ChangedCells []types.FieldID
}

// RowData is the plain snapshot GetRow returns.
type RowData struct {
	ID         types.RowID
	DatabaseID types.DatabaseID
	Cells      map[types.FieldID]string
	Height     int64
	Visibility bool
	CreatedAt  types.Timestamp
	ModifiedAt types.Timestamp
}

// RowMutator is the scratch space a DatabaseRow.Update callback uses to
// change cells, height, and visibility in one transaction.
type RowMutator struct {
	root    crdt.Map
	changed map[types.FieldID]bool
}

// SetCell stores raw (the field TypeOption's canonical raw cell
// string) under fieldID.
func (m *RowMutator) SetCell(fieldID types.FieldID, raw string) {
	cells := m.root.GetOrCreateMap("cells")
	anymap.New(cells.GetOrCreateMap(string(fieldID))).Insert("data", raw)
	m.changed[fieldID] = true
}

// SetHeight overrides the row's rendered height.
func (m *RowMutator) SetHeight(h int64) { anymap.New(m.root).Insert("height", h) }

// SetVisibility overrides whether the row is hidden by a filter.
func (m *RowMutator) SetVisibility(v bool) { anymap.New(m.root).Insert("visibility", v) }

// DatabaseRow wraps one CRDT sub-document: a single row's id, owning
// database id, cell data, and bookkeeping timestamps. Only the row's
// own transaction may edit its cells.
type DatabaseRow struct {
	collab crdt.Collab
	store  *crdt.Store
	id     types.RowID

	mu     sync.Mutex
	broker *events.Broker[RowChange]
}

// NewRow constructs an empty DatabaseRow rooted at collab, seeding the
// root map for id/databaseID if it is freshly opened.
func NewRow(collab crdt.Collab, store *crdt.Store, id types.RowID, databaseID types.DatabaseID) *DatabaseRow {
	r := &DatabaseRow{collab: collab, store: store, id: id, broker: events.NewBroker[RowChange](16)}
	r.broker.Start()
	_ = r.collab.Update(context.Background(), r.origin(), func(txn crdt.WriteTxn) error {
		root := anymap.New(txn.Root())
		if _, ok := root.GetString("id"); ok {
			return nil
		}
		now := int64(types.Now())
		root.Insert("id", string(id))
		root.Insert("database_id", string(databaseID))
		root.Insert("height", int64(defaultRowHeight))
		root.Insert("visibility", true)
		root.Insert("created_at", now)
		root.Insert("modified_at", now)
		return nil
	})
	return r
}

func (r *DatabaseRow) origin() crdt.CollabOrigin {
	return crdt.CollabOrigin{Tag: "database-row"}
}

// ID returns the row's identifier.
func (r *DatabaseRow) ID() types.RowID { return r.id }

// Observe subscribes to this row's RowChange notifications.
func (r *DatabaseRow) Observe() events.Subscriber[RowChange] { return r.broker.Subscribe() }

// Unobserve cancels a subscription returned by Observe.
func (r *DatabaseRow) Unobserve(sub events.Subscriber[RowChange]) { r.broker.Unsubscribe(sub) }

func (r *DatabaseRow) publish(kind RowChangeKind, changed []types.FieldID) {
	r.broker.Publish(RowChange{RowID: r.id, Kind: kind, ChangedCells: changed})
}

// GetRow reads the row's full current state.
func (r *DatabaseRow) GetRow(ctx context.Context) (RowData, error) {
	var data RowData
	err := r.collab.View(ctx, func(txn crdt.ReadTxn) error {
		data = rowFromRoot(anymap.New(txn.Root()))
		return nil
	})
	return data, err
}

func rowFromRoot(root *anymap.AnyMap) RowData {
	data := RowData{Cells: map[types.FieldID]string{}}
	if v, ok := root.GetString("id"); ok {
		data.ID = types.RowID(v)
	}
	if v, ok := root.GetString("database_id"); ok {
		data.DatabaseID = types.DatabaseID(v)
	}
	data.Height, _ = root.GetInt64("height")
	data.Visibility, _ = root.GetBool("visibility")
	if v, ok := root.GetInt64("created_at"); ok {
		data.CreatedAt = types.Timestamp(v)
	}
	if v, ok := root.GetInt64("modified_at"); ok {
		data.ModifiedAt = types.Timestamp(v)
	}
	if cells, ok := root.GetMap("cells"); ok {
		for _, k := range cells.Raw().Keys() {
			sub, ok := cells.Raw().GetMap(k)
			if !ok {
				continue
			}
			if raw, ok := anymap.New(sub).GetString("data"); ok {
				data.Cells[types.FieldID(k)] = raw
			}
		}
	}
	return data
}

// GetCell reads one cell's raw stored string.
func (r *DatabaseRow) GetCell(ctx context.Context, fieldID types.FieldID) (string, bool, error) {
	var raw string
	var ok bool
	err := r.collab.View(ctx, func(txn crdt.ReadTxn) error {
		root := anymap.New(txn.Root())
		cells, has := root.GetMap("cells")
		if !has {
			return nil
		}
		sub, has := cells.GetMap(string(fieldID))
		if !has {
			return nil
		}
		raw, ok = anymap.New(sub.Raw()).GetString("data")
		return nil
	})
	return raw, ok, err
}

// Update runs f against a RowMutator, bumps modified_at, and publishes
// a RowChange naming every cell f touched.
func (r *DatabaseRow) Update(ctx context.Context, f func(*RowMutator)) error {
	changed := map[types.FieldID]bool{}
	err := r.collab.Update(ctx, r.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		mut := &RowMutator{root: root, changed: changed}
		f(mut)
		anymap.New(root).Insert("modified_at", int64(types.Now()))
		return nil
	})
	if err != nil {
		return err
	}
	ids := make([]types.FieldID, 0, len(changed))
	for fid := range changed {
		ids = append(ids, fid)
	}
	r.publish(RowChangeUpdate, ids)
	return nil
}

// UpdateMeta runs f against a RowMutator but only expects height/
// visibility changes; it still bumps modified_at but reports no
// changed cells.
func (r *DatabaseRow) UpdateMeta(ctx context.Context, f func(*RowMutator)) error {
	err := r.collab.Update(ctx, r.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		mut := &RowMutator{root: root, changed: map[types.FieldID]bool{}}
		f(mut)
		anymap.New(root).Insert("modified_at", int64(types.Now()))
		return nil
	})
	if err != nil {
		return err
	}
	r.publish(RowChangeUpdate, nil)
	return nil
}

// Delete removes this row's persisted state and publishes a
// RowChangeDelete. The row object must not be used afterward.
func (r *DatabaseRow) Delete(ctx context.Context) error {
	if r.store != nil {
		if err := r.store.Delete(ctx, "row:"+string(r.id)); err != nil {
			log.WithComponent("database-row").Warn().Err(err).Str("row_id", string(r.id)).Msg("delete row state")
		}
	}
	r.publish(RowChangeDelete, nil)
	r.broker.Stop()
	return r.collab.Close()
}
