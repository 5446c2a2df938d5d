package database

import (
	"context"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

const workspaceDatabaseObjectID = "workspace-database-index"

// DatabaseMeta is one WorkspaceDatabase entry: which views render a
// database, so a workspace can list its databases without opening
// each one.
type DatabaseMeta struct {
	DatabaseID  types.DatabaseID
	CreatedAt   types.Timestamp
	LinkedViews []types.ViewID
}

// WorkspaceDatabase is a flat index of every Database known to a
// workspace. It never opens a Database itself — that happens on
// demand through the persistence.Service a caller already holds.
type WorkspaceDatabase struct {
	collab crdt.Collab
}

// OpenWorkspaceDatabase opens (creating on first use) the index for store.
func OpenWorkspaceDatabase(ctx context.Context, store *crdt.Store) (*WorkspaceDatabase, error) {
	collab, err := store.Open(ctx, workspaceDatabaseObjectID)
	if err != nil {
		return nil, err
	}
	return &WorkspaceDatabase{collab: collab}, nil
}

func (w *WorkspaceDatabase) origin() crdt.CollabOrigin {
	return crdt.CollabOrigin{Tag: "workspace-database"}
}

func entriesRoot(root crdt.Map) crdt.Map { return root.GetOrCreateMap("entries") }

func insertMeta(entries crdt.Map, meta DatabaseMeta) {
	if meta.CreatedAt == 0 {
		meta.CreatedAt = types.Now()
	}
	sub := anymap.New(entries.GetOrCreateMap(string(meta.DatabaseID)))
	sub.Insert("database_id", string(meta.DatabaseID))
	sub.Insert("created_at", int64(meta.CreatedAt))
	views := make([]crdt.Value, len(meta.LinkedViews))
	for i, v := range meta.LinkedViews {
		views[i] = string(v)
	}
	arr := sub.GetOrCreateArray("linked_views")
	for arr.Len() > 0 {
		arr.RemoveAt(0)
	}
	for _, v := range views {
		arr.Push(v)
	}
}

func metaFromMap(m *anymap.AnyMap) DatabaseMeta {
	meta := DatabaseMeta{}
	if s, ok := m.GetString("database_id"); ok {
		meta.DatabaseID = types.DatabaseID(s)
	}
	if ts, ok := m.GetInt64("created_at"); ok {
		meta.CreatedAt = types.Timestamp(ts)
	}
	if arr, ok := m.GetArray("linked_views"); ok {
		for _, item := range arr.Items() {
			if s, ok := item.(string); ok {
				meta.LinkedViews = append(meta.LinkedViews, types.ViewID(s))
			}
		}
	}
	return meta
}

// Add registers meta, overwriting any existing entry for the same id.
func (w *WorkspaceDatabase) Add(ctx context.Context, meta DatabaseMeta) error {
	return w.collab.Update(ctx, w.origin(), func(txn crdt.WriteTxn) error {
		insertMeta(entriesRoot(txn.Root()), meta)
		return nil
	})
}

// BatchAdd registers every meta in metas in one transaction.
func (w *WorkspaceDatabase) BatchAdd(ctx context.Context, metas []DatabaseMeta) error {
	return w.collab.Update(ctx, w.origin(), func(txn crdt.WriteTxn) error {
		entries := entriesRoot(txn.Root())
		for _, meta := range metas {
			insertMeta(entries, meta)
		}
		return nil
	})
}

// Delete removes id's entry, if present.
func (w *WorkspaceDatabase) Delete(ctx context.Context, id types.DatabaseID) error {
	return w.collab.Update(ctx, w.origin(), func(txn crdt.WriteTxn) error {
		entriesRoot(txn.Root()).Delete(string(id))
		return nil
	})
}

// Update applies f to id's entry. It is a no-op if id is absent.
func (w *WorkspaceDatabase) Update(ctx context.Context, id types.DatabaseID, f func(*DatabaseMeta)) error {
	return w.collab.Update(ctx, w.origin(), func(txn crdt.WriteTxn) error {
		entries := entriesRoot(txn.Root())
		sub, ok := entries.GetMap(string(id))
		if !ok {
			return nil
		}
		meta := metaFromMap(anymap.New(sub))
		f(&meta)
		insertMeta(entries, meta)
		return nil
	})
}

// GetByID reads id's entry.
func (w *WorkspaceDatabase) GetByID(ctx context.Context, id types.DatabaseID) (DatabaseMeta, bool, error) {
	var meta DatabaseMeta
	var found bool
	err := w.collab.View(ctx, func(txn crdt.ReadTxn) error {
		sub, ok := entriesRoot(txn.Root()).GetMap(string(id))
		if !ok {
			return nil
		}
		meta, found = metaFromMap(anymap.New(sub)), true
		return nil
	})
	return meta, found, err
}

// GetByViewID finds the entry whose LinkedViews contains viewID.
func (w *WorkspaceDatabase) GetByViewID(ctx context.Context, viewID types.ViewID) (DatabaseMeta, bool, error) {
	var meta DatabaseMeta
	var found bool
	err := w.collab.View(ctx, func(txn crdt.ReadTxn) error {
		entries := entriesRoot(txn.Root())
		for _, k := range entries.Keys() {
			sub, ok := entries.GetMap(k)
			if !ok {
				continue
			}
			candidate := metaFromMap(anymap.New(sub))
			for _, v := range candidate.LinkedViews {
				if v == viewID {
					meta, found = candidate, true
					return nil
				}
			}
		}
		return nil
	})
	return meta, found, err
}

// GetAll returns every registered entry.
func (w *WorkspaceDatabase) GetAll(ctx context.Context) ([]DatabaseMeta, error) {
	var out []DatabaseMeta
	err := w.collab.View(ctx, func(txn crdt.ReadTxn) error {
		entries := entriesRoot(txn.Root())
		out = make([]DatabaseMeta, 0, entries.Len())
		for _, k := range entries.Keys() {
			sub, ok := entries.GetMap(k)
			if !ok {
				continue
			}
			out = append(out, metaFromMap(anymap.New(sub)))
		}
		return nil
	})
	return out, err
}

// errNotFound is returned by callers that need a typed not-found for
// a missing DatabaseMeta lookup (GetByID/GetByViewID return a bool
// instead, since "absent" is routine there, not exceptional).
var errNotFound = collaberrors.New(collaberrors.KindNotFound, "database meta")

// MustGetByID reads id's entry, returning errNotFound if absent.
func (w *WorkspaceDatabase) MustGetByID(ctx context.Context, id types.DatabaseID) (DatabaseMeta, error) {
	meta, ok, err := w.GetByID(ctx, id)
	if err != nil {
		return DatabaseMeta{}, err
	}
	if !ok {
		return DatabaseMeta{}, errNotFound
	}
	return meta, nil
}
