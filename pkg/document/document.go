package document

import (
	"context"
	"sync"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/events"
	"github.com/cuemby/collabkit/pkg/types"
)

// ErrNoPage is returned by Open when the document's page_id key has
// never been set — the document exists but was never initialized via
// Create.
var ErrNoPage = collaberrors.New(collaberrors.KindMissingRequiredData, "page_id")

const (
	pageIDKey       = "page_id"
	metaKey         = "meta"
	childrenMapKey  = "children_map"
	undoStackLimit  = 100
)

func metaRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(metaKey)
}

// CreateParams seeds a brand-new document's root page block.
type CreateParams struct {
	PageID   types.BlockID
	PageType string
	PageData map[string]any
}

// DocumentData is the read-only snapshot GetDocumentData returns.
type DocumentData struct {
	PageID      types.BlockID
	Blocks      map[types.BlockID]Block
	ChildrenMap map[ChildrenListID][]types.BlockID
	TextMap     map[string]string
}

type undoEntry struct {
	Forward []BlockAction
	Inverse []BlockAction
}

// Document is the facade over a document CRDT document: the block
// map, the parent→children index, and the external rich-text map.
type Document struct {
	collab crdt.Collab
	broker *events.Broker[BlockEvent]

	mu        sync.Mutex
	undoStack []undoEntry
	redoStack []undoEntry
}

// New wraps an already-open collab as a Document facade. Callers
// obtain the collab from a crdt.Store keyed by the document's object
// id.
func New(collab crdt.Collab) *Document {
	d := &Document{collab: collab, broker: events.NewBroker[BlockEvent](16)}
	d.broker.Start()
	return d
}

// Close stops the document's event broker. It does not close the
// underlying collab, which callers may share with other facades.
func (d *Document) Close() {
	d.broker.Stop()
}

// Observe subscribes to this document's BlockEvent notifications.
func (d *Document) Observe() events.Subscriber[BlockEvent] { return d.broker.Subscribe() }

// Unobserve cancels a subscription returned by Observe.
func (d *Document) Unobserve(sub events.Subscriber[BlockEvent]) { d.broker.Unsubscribe(sub) }

func (d *Document) origin() crdt.CollabOrigin {
	return crdt.CollabOrigin{ClientID: d.collab.ObjectID(), Tag: "document"}
}

func (d *Document) publish(kind BlockChangeKind, id types.BlockID, path []types.BlockID) {
	d.broker.Publish(BlockEvent{Kind: kind, BlockID: id, Path: path})
}

// Create initializes the document's root page block if it has never
// been created before. It is a no-op if page_id is already set.
func (d *Document) Create(ctx context.Context, params CreateParams) error {
	return d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		rootMap := anymap.New(root)
		if _, ok := rootMap.GetString(pageIDKey); ok {
			return nil
		}
		rootMap.Insert(pageIDKey, string(params.PageID))
		data := params.PageData
		if data == nil {
			data = map[string]any{}
		}
		insertBlock(blocksRoot(root), Block{
			ID:         params.PageID,
			Type:       params.PageType,
			Data:       data,
			ChildrenID: mintChildrenID(),
		})
		return nil
	})
}

// Open validates that the document has been created, returning
// ErrNoPage if not.
func (d *Document) Open(ctx context.Context) error {
	var missing bool
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		_, ok := anymap.New(txn.Root()).GetString(pageIDKey)
		missing = !ok
		return nil
	})
	if err != nil {
		return err
	}
	if missing {
		return ErrNoPage
	}
	return nil
}

// GetBlock returns id's current block, if present.
func (d *Document) GetBlock(ctx context.Context, id types.BlockID) (Block, bool, error) {
	var b Block
	var ok bool
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		b, ok = getBlock(blocksRoot(txn.Root()), id)
		return nil
	})
	return b, ok, err
}

// GetDocumentData returns the full document: every block, the
// parent→children index, and the text map.
func (d *Document) GetDocumentData(ctx context.Context) (DocumentData, error) {
	var data DocumentData
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		root := txn.Root()
		pageID, _ := anymap.New(root).GetString(pageIDKey)
		data = DocumentData{
			PageID:      types.BlockID(pageID),
			Blocks:      getAllBlocks(blocksRoot(root)),
			ChildrenMap: allChildren(childrenMapRoot(root)),
			TextMap:     allText(metaRoot(root)),
		}
		return nil
	})
	return data, err
}

func allChildren(m crdt.Map) map[ChildrenListID][]types.BlockID {
	out := make(map[ChildrenListID][]types.BlockID, m.Len())
	for _, k := range m.Keys() {
		arr, ok := m.GetArray(k)
		if !ok {
			continue
		}
		ids := make([]types.BlockID, 0, arr.Len())
		for _, v := range arr.Items() {
			if s, ok := v.(string); ok {
				ids = append(ids, types.BlockID(s))
			}
		}
		out[ChildrenListID(k)] = ids
	}
	return out
}

// pathTo walks parent links from id up to the document's page root,
// returning every ancestor of id (page root included, id itself
// excluded) in root-to-leaf order.
func pathTo(blocks crdt.Map, id types.BlockID) []types.BlockID {
	var path []types.BlockID
	cur := id
	for i := 0; i < 1000; i++ {
		b, ok := getBlock(blocks, cur)
		if !ok || b.ParentID == "" {
			break
		}
		path = append([]types.BlockID{b.ParentID}, path...)
		cur = b.ParentID
	}
	return path
}

// ApplyAction processes every action in actions within a single
// transaction, in order, and records the inverse batch on the undo
// stack (clearing redo). Returns the resolved Block for every Insert
// action, in the same order as actions (zero Block for non-Insert
// entries).
func (d *Document) ApplyAction(ctx context.Context, actions []BlockAction) ([]Block, error) {
	results, inverse, events_, err := d.runBatch(ctx, actions)
	if err != nil {
		return nil, err
	}
	// Record each Insert with its resolved block (minted id included) so
	// Redo recreates the same block the undo inverse refers to.
	forward := make([]BlockAction, len(actions))
	copy(forward, actions)
	for i := range forward {
		if forward[i].Kind == ActionInsert {
			forward[i].Block = results[i]
		}
	}
	d.mu.Lock()
	d.undoStack = append(d.undoStack, undoEntry{Forward: forward, Inverse: inverse})
	if len(d.undoStack) > undoStackLimit {
		d.undoStack = d.undoStack[len(d.undoStack)-undoStackLimit:]
	}
	d.redoStack = nil
	d.mu.Unlock()
	for _, e := range events_ {
		d.publish(e.Kind, e.BlockID, e.Path)
	}
	return results, nil
}

// runBatch applies actions in one transaction without touching the
// undo/redo stacks, returning the per-Insert results, the inverse
// batch (already in replay order — last-applied action's inverse
// first), and the events the commit produced.
func (d *Document) runBatch(ctx context.Context, actions []BlockAction) ([]Block, []BlockAction, []BlockEvent, error) {
	results := make([]Block, len(actions))
	// perActionInverse[i] holds the (possibly multi-action, already
	// correctly internally ordered) inverse of actions[i]. The batch's
	// full inverse replays these in reverse action order so a later
	// action's effect is undone before an earlier one's, but each
	// entry's own internal order (e.g. a deleted subtree's parent
	// reinserted before its children) is preserved as-is.
	perActionInverse := make([][]BlockAction, len(actions))
	var evts []BlockEvent

	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		for i, action := range actions {
			switch action.Kind {
			case ActionInsert:
				block, inv, err := applyInsert(root, action)
				if err != nil {
					return err
				}
				results[i] = block
				perActionInverse[i] = []BlockAction{*inv}
				evts = append(evts, BlockEvent{Kind: BlockInserted, BlockID: block.ID, Path: pathTo(blocksRoot(root), block.ID)})
			case ActionUpdate:
				inv, err := applyUpdate(root, action)
				if err != nil {
					return err
				}
				perActionInverse[i] = []BlockAction{*inv}
				evts = append(evts, BlockEvent{Kind: BlockUpdated, BlockID: action.Block.ID, Path: pathTo(blocksRoot(root), action.Block.ID)})
			case ActionDelete:
				path := pathTo(blocksRoot(root), action.Block.ID)
				snapshot, err := applyDelete(root, action.Block.ID)
				if err != nil {
					return err
				}
				if snapshot != nil {
					perActionInverse[i] = snapshot
					evts = append(evts, BlockEvent{Kind: BlockDeleted, BlockID: action.Block.ID, Path: path})
				}
			case ActionMove:
				inv, err := applyMove(root, action)
				if err != nil {
					return err
				}
				if inv != nil {
					perActionInverse[i] = []BlockAction{*inv}
					evts = append(evts, BlockEvent{Kind: BlockMoved, BlockID: action.Block.ID, Path: pathTo(blocksRoot(root), action.Block.ID)})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var inverse []BlockAction
	for i := len(perActionInverse) - 1; i >= 0; i-- {
		inverse = append(inverse, perActionInverse[i]...)
	}
	return results, inverse, evts, nil
}

// PruneOrphanedChildren removes every children_map entry whose id is
// not present in blocks. Returns the number of entries removed.
func (d *Document) PruneOrphanedChildren(ctx context.Context) (int, error) {
	removed := 0
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		blocks := blocksRoot(root)
		children := childrenMapRoot(root)
		for _, listID := range children.Keys() {
			arr, ok := children.GetArray(listID)
			if !ok {
				continue
			}
			for i := arr.Len() - 1; i >= 0; i-- {
				items := arr.Items()
				if i >= len(items) {
					continue
				}
				s, ok := items[i].(string)
				if !ok {
					continue
				}
				if _, ok := getBlock(blocks, types.BlockID(s)); !ok {
					arr.RemoveAt(i)
					removed++
				}
			}
		}
		return nil
	})
	return removed, err
}

// Undo reapplies the most recently applied batch's inverse, moving it
// to the redo stack. Reports whether there was anything to undo.
func (d *Document) Undo(ctx context.Context) (bool, error) {
	d.mu.Lock()
	if len(d.undoStack) == 0 {
		d.mu.Unlock()
		return false, nil
	}
	entry := d.undoStack[len(d.undoStack)-1]
	d.undoStack = d.undoStack[:len(d.undoStack)-1]
	d.mu.Unlock()

	_, _, evts, err := d.runBatch(ctx, entry.Inverse)
	if err != nil {
		d.mu.Lock()
		d.undoStack = append(d.undoStack, entry)
		d.mu.Unlock()
		return false, err
	}

	d.mu.Lock()
	d.redoStack = append(d.redoStack, entry)
	if len(d.redoStack) > undoStackLimit {
		d.redoStack = d.redoStack[len(d.redoStack)-undoStackLimit:]
	}
	d.mu.Unlock()
	for _, e := range evts {
		d.publish(e.Kind, e.BlockID, e.Path)
	}
	return true, nil
}

// Redo reapplies the most recently undone batch's original actions,
// moving it back to the undo stack. Reports whether there was
// anything to redo.
func (d *Document) Redo(ctx context.Context) (bool, error) {
	d.mu.Lock()
	if len(d.redoStack) == 0 {
		d.mu.Unlock()
		return false, nil
	}
	entry := d.redoStack[len(d.redoStack)-1]
	d.redoStack = d.redoStack[:len(d.redoStack)-1]
	d.mu.Unlock()

	_, _, evts, err := d.runBatch(ctx, entry.Forward)
	if err != nil {
		d.mu.Lock()
		d.redoStack = append(d.redoStack, entry)
		d.mu.Unlock()
		return false, err
	}

	d.mu.Lock()
	d.undoStack = append(d.undoStack, entry)
	if len(d.undoStack) > undoStackLimit {
		d.undoStack = d.undoStack[len(d.undoStack)-undoStackLimit:]
	}
	d.mu.Unlock()
	for _, e := range evts {
		d.publish(e.Kind, e.BlockID, e.Path)
	}
	return true, nil
}
