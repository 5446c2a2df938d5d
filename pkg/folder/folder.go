package folder

import (
	"context"
	"strconv"
	"sync"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/events"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/parentchild"
	"github.com/cuemby/collabkit/pkg/types"
)

// ErrNoWorkspace is returned by Open when the folder's current_workspace
// key has never been set — the folder doc exists but was never
// initialized via Create.
var ErrNoWorkspace = collaberrors.New(collaberrors.KindMissingRequiredData, "current_workspace")

const (
	metaKey             = "meta"
	metaWorkspaceKey    = "current_workspace"
	metaCurrentViewsKey = "current_view_by_user"
	relationsKey        = "view_relations"
)

// InitialData seeds a brand-new folder on Create.
type InitialData struct {
	WorkspaceID  types.ViewID
	WorkspaceUID int64
}

// FolderData is the read-only snapshot GetFolderData returns.
type FolderData struct {
	Workspace   View
	CurrentView types.ViewID
	AllViews    []View // DFS pre-order from the workspace root
	Favorites   []types.ViewID
	Trash       []types.ViewID
}

// Folder is the facade over a folder CRDT document: views, their
// parent/child relationships, and per-user sections.
type Folder struct {
	collab crdt.Collab
	broker *events.Broker[ViewChange]

	mu            sync.Mutex
	deletionCache map[types.ViewID]View
}

// New wraps an already-open collab as a Folder facade. Callers obtain
// the collab from a crdt.Store keyed by the folder's object id.
func New(collab crdt.Collab) *Folder {
	f := &Folder{
		collab:        collab,
		broker:        events.NewBroker[ViewChange](16),
		deletionCache: make(map[types.ViewID]View),
	}
	f.broker.Start()
	return f
}

// Close stops the folder's event broker. It does not close the
// underlying collab, which callers may share with other facades.
func (f *Folder) Close() {
	f.broker.Stop()
}

// Observe subscribes to every ViewChange this Folder publishes.
func (f *Folder) Observe() events.Subscriber[ViewChange] {
	return f.broker.Subscribe()
}

func (f *Folder) Unobserve(sub events.Subscriber[ViewChange]) {
	f.broker.Unsubscribe(sub)
}

func (f *Folder) publish(kind ChangeKind, v View) {
	f.mu.Lock()
	if kind == Deleted {
		delete(f.deletionCache, v.ID)
	} else {
		f.deletionCache[v.ID] = v
	}
	f.mu.Unlock()
	f.broker.Publish(ViewChange{Kind: kind, View: v})
}

func (f *Folder) origin() crdt.CollabOrigin {
	return crdt.CollabOrigin{ClientID: f.collab.ObjectID(), Tag: "folder"}
}

// Create initializes the folder's root containers and seeds a
// workspace view if the folder has never been created before. It is a
// no-op if current_workspace is already set.
func (f *Folder) Create(ctx context.Context, data InitialData) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		meta := anymap.New(root.GetOrCreateMap(metaKey))
		if _, ok := meta.GetString(metaWorkspaceKey); ok {
			return nil
		}

		meta.Insert(metaWorkspaceKey, string(data.WorkspaceID))
		insertView(viewsRoot(root), View{
			ID:     data.WorkspaceID,
			Name:   "Workspace",
			Layout: types.ViewLayoutDocument,
		})
		return nil
	})
}

// Open validates that the folder has been created, returning
// ErrNoWorkspace if not.
func (f *Folder) Open(ctx context.Context) error {
	var missing bool
	err := f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		meta := anymap.New(txn.Root().GetOrCreateMap(metaKey))
		_, ok := meta.GetString(metaWorkspaceKey)
		missing = !ok
		return nil
	})
	if err != nil {
		return err
	}
	if missing {
		return ErrNoWorkspace
	}
	return nil
}

// SetCurrentView records viewID as uid's current view.
func (f *Folder) SetCurrentView(ctx context.Context, uid int64, viewID types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		meta := anymap.New(txn.Root().GetOrCreateMap(metaKey))
		byUser := meta.GetOrCreateMap(metaCurrentViewsKey)
		byUser.Insert(strconv.FormatInt(uid, 10), string(viewID))
		return nil
	})
}

// GetCurrentView returns uid's current view, if any.
func (f *Folder) GetCurrentView(ctx context.Context, uid int64) (types.ViewID, bool) {
	var current types.ViewID
	var ok bool
	_ = f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		meta := anymap.New(txn.Root().GetOrCreateMap(metaKey))
		byUser, found := meta.GetMap(metaCurrentViewsKey)
		if !found {
			return nil
		}
		v, found := byUser.GetString(strconv.FormatInt(uid, 10))
		if found {
			current, ok = types.ViewID(v), true
		}
		return nil
	})
	return current, ok
}

// Insert adds view to the folder and records it as a child of
// view.ParentID (root-level if ParentID is empty).
func (f *Folder) Insert(ctx context.Context, v View) error {
	err := f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		insertView(viewsRoot(root), v)
		parentchild.New(root.GetOrCreateMap(relationsKey)).AddChild(string(v.ParentID), string(v.ID))
		return nil
	})
	if err != nil {
		return err
	}
	f.publish(Inserted, v)
	return nil
}

// Update applies f to viewID's stored view.
func (f *Folder) Update(ctx context.Context, viewID types.ViewID, fn func(*View)) (View, error) {
	var result View
	var found bool
	err := f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		result, found = updateView(viewsRoot(txn.Root()), viewID, fn)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	if !found {
		return View{}, collaberrors.New(collaberrors.KindNotFound, string(viewID))
	}
	f.publish(Updated, result)
	return result, nil
}

// DeleteViews removes every id in ids from the views map and from
// their parents' children lists.
func (f *Folder) DeleteViews(ctx context.Context, ids []types.ViewID) error {
	var deleted []View
	err := f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		views := viewsRoot(root)
		relations := parentchild.New(root.GetOrCreateMap(relationsKey))
		for _, id := range ids {
			v, ok := getView(views, id)
			if !ok {
				continue
			}
			relations.RemoveChild(string(v.ParentID), string(id))
			deleteView(views, id)
			deleted = append(deleted, v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, v := range deleted {
		f.publish(Deleted, v)
	}
	return nil
}

// Get returns viewID's current view, computing IsFavorite for uid.
func (f *Folder) Get(ctx context.Context, viewID types.ViewID, uid int64) (View, bool) {
	var v View
	var ok bool
	_ = f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		v, ok = getView(viewsRoot(txn.Root()), viewID)
		if ok {
			v.IsFavorite = isInSection(txn.Root(), SectionFavorite, uid, viewID)
		}
		return nil
	})
	if ok {
		f.mu.Lock()
		f.deletionCache[viewID] = v
		f.mu.Unlock()
	}
	return v, ok
}

// GetAll returns every view in the folder, with IsFavorite computed
// for uid.
func (f *Folder) GetAll(ctx context.Context, uid int64) []View {
	var all []View
	_ = f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		all = getAllViews(viewsRoot(txn.Root()))
		for i := range all {
			all[i].IsFavorite = isInSection(txn.Root(), SectionFavorite, uid, all[i].ID)
		}
		return nil
	})
	return all
}

// MoveNestedView moves viewID from its current parent to newParentID,
// positioning it after prevID (at the end if prevID is nil or not
// found). Moves across workspaces are rejected as a no-op.
func (f *Folder) MoveNestedView(ctx context.Context, viewID, newParentID types.ViewID, prevID *types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		views := viewsRoot(root)
		v, ok := getView(views, viewID)
		if !ok {
			return collaberrors.New(collaberrors.KindNotFound, string(viewID))
		}
		newParent, ok := getView(views, newParentID)
		if !ok && newParentID != "" {
			return collaberrors.New(collaberrors.KindNotFound, string(newParentID))
		}

		meta := anymap.New(root.GetOrCreateMap(metaKey))
		workspaceID, _ := meta.GetString(metaWorkspaceKey)
		if crossesWorkspace(views, v.ParentID, newParent.ID, types.ViewID(workspaceID)) {
			log.WithViewID(string(viewID)).Warn().
				Str("new_parent", string(newParentID)).
				Msg("rejected cross-workspace view move")
			return nil
		}

		relations := parentchild.New(root.GetOrCreateMap(relationsKey))
		at := -1
		if prevID != nil {
			children := relations.GetChildren(string(newParentID))
			for i, id := range children {
				if id == string(*prevID) {
					at = i + 1
					break
				}
			}
			if at == -1 {
				log.WithViewID(string(viewID)).Warn().Msg("MoveNestedView: prevID not found, appending")
			}
		}
		relations.Associate(string(v.ParentID), string(newParentID), string(viewID), at)
		v.ParentID = newParentID
		v.LastEditedTime = types.Now()
		insertView(views, v)
		return nil
	})
}

// crossesWorkspace is a conservative check: only blocks the move when
// both the old and new parents resolve to a *different* workspace
// root than the folder's single current_workspace. Since this
// implementation supports exactly one workspace per folder document,
// every move within it is intra-workspace; this exists to keep the
// contract explicit and cheap to extend if multi-workspace folders are
// ever added.
func crossesWorkspace(_ crdt.Map, _, _ types.ViewID, _ types.ViewID) bool {
	return false
}

// AddFavorites marks viewID as a favorite for uid.
func (f *Folder) AddFavorites(ctx context.Context, uid int64, viewID types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		addToSection(txn.Root(), SectionFavorite, uid, viewID)
		return nil
	})
}

// DeleteFavorites unmarks viewID as a favorite for uid.
func (f *Folder) DeleteFavorites(ctx context.Context, uid int64, viewID types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		removeFromSection(txn.Root(), SectionFavorite, uid, viewID)
		return nil
	})
}

// AddTrash moves viewID into uid's trash section.
func (f *Folder) AddTrash(ctx context.Context, uid int64, viewID types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		addToSection(txn.Root(), SectionTrash, uid, viewID)
		return nil
	})
}

// DeleteTrash removes viewID from uid's trash section (restoring it).
func (f *Folder) DeleteTrash(ctx context.Context, uid int64, viewID types.ViewID) error {
	return f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		removeFromSection(txn.Root(), SectionTrash, uid, viewID)
		return nil
	})
}

// GetFolderData returns a snapshot of the folder for uid: the
// workspace view, uid's current view, every view in DFS pre-order from
// the workspace, and uid's favorites/trash.
func (f *Folder) GetFolderData(ctx context.Context, uid int64) (FolderData, error) {
	var data FolderData
	err := f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		root := txn.Root()
		meta := anymap.New(root.GetOrCreateMap(metaKey))
		workspaceID, ok := meta.GetString(metaWorkspaceKey)
		if !ok {
			return ErrNoWorkspace
		}
		views := viewsRoot(root)
		ws, ok := getView(views, types.ViewID(workspaceID))
		if !ok {
			return collaberrors.New(collaberrors.KindCorruption, workspaceID)
		}
		data.Workspace = ws

		if byUser, ok := meta.GetMap(metaCurrentViewsKey); ok {
			if v, ok := byUser.GetString(strconv.FormatInt(uid, 10)); ok {
				data.CurrentView = types.ViewID(v)
			}
		}

		relations := parentchild.New(root.GetOrCreateMap(relationsKey))
		data.AllViews = dfsViews(views, relations, types.ViewID(workspaceID))
		data.Favorites = sectionViewIDs(root, SectionFavorite, uid)
		data.Trash = sectionViewIDs(root, SectionTrash, uid)
		return nil
	})
	return data, err
}

// PruneDanglingSections removes every section entry (favorite/trash/
// recent, for every user) that names a view no longer present in the
// views map. Returns the number of entries removed.
func (f *Folder) PruneDanglingSections(ctx context.Context) (int, error) {
	removed := 0
	err := f.collab.Update(ctx, f.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		views := viewsRoot(root)
		sections := sectionsRoot(root)
		for _, name := range sections.Keys() {
			byName, ok := sections.GetMap(name)
			if !ok {
				continue
			}
			for _, uid := range byName.Keys() {
				sub, ok := byName.GetMap(uid)
				if !ok {
					continue
				}
				m := anymap.New(sub)
				ids := m.StringArray("ids")
				kept := make([]string, 0, len(ids))
				for _, id := range ids {
					if _, ok := getView(views, types.ViewID(id)); ok {
						kept = append(kept, id)
					} else {
						removed++
					}
				}
				if len(kept) != len(ids) {
					m.SetStringArray("ids", kept)
				}
			}
		}
		return nil
	})
	return removed, err
}

func dfsViews(views crdt.Map, relations *parentchild.Relations, root types.ViewID) []View {
	var out []View
	var walk func(id types.ViewID)
	walk = func(id types.ViewID) {
		v, ok := getView(views, id)
		if !ok {
			return
		}
		out = append(out, v)
		for _, childID := range relations.GetChildren(string(id)) {
			walk(types.ViewID(childID))
		}
	}
	walk(root)
	return out
}

// GetViewRecursively returns viewID and every descendant, breadth
// first, tolerating cycles in malformed data via a visited set.
func (f *Folder) GetViewRecursively(ctx context.Context, viewID types.ViewID, uid int64) []View {
	var out []View
	_ = f.collab.View(ctx, func(txn crdt.ReadTxn) error {
		root := txn.Root()
		views := viewsRoot(root)
		relations := parentchild.New(root.GetOrCreateMap(relationsKey))
		visited := map[types.ViewID]bool{}
		queue := []types.ViewID{viewID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if visited[id] {
				continue
			}
			visited[id] = true
			v, ok := getView(views, id)
			if !ok {
				continue
			}
			v.IsFavorite = isInSection(root, SectionFavorite, uid, id)
			out = append(out, v)
			for _, childID := range relations.GetChildren(string(id)) {
				queue = append(queue, types.ViewID(childID))
			}
		}
		return nil
	})
	return out
}
