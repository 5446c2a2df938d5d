package document

import (
	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/parentchild"
	"github.com/cuemby/collabkit/pkg/types"
)

// BlockActionKind selects what one BlockAction does to the tree.
type BlockActionKind int

const (
	ActionInsert BlockActionKind = iota
	ActionUpdate
	ActionDelete
	ActionMove
)

// BlockAction is one step of an ApplyAction batch.
//
//   - Insert: Block carries the new block's desired fields (ID may be
//     left zero to mint one). ParentID is used when Block.ParentID is
//     empty. PrevID places it after that sibling, or first if nil/not
//     found among the parent's current children.
//   - Update: Block.ID names the target; Block.Data is merged into its
//     stored data, overwriting matching keys.
//   - Delete: Block.ID names the target; its whole subtree is removed.
//   - Move: Block.ID names the target; ParentID/PrevID behave as
//     Insert's. A no-op if ParentID equals the block's current parent.
type BlockAction struct {
	Kind     BlockActionKind
	Block    Block
	ParentID types.BlockID
	PrevID   *types.BlockID
}

func childrenMapRoot(root crdt.Map) crdt.Map {
	return metaRoot(root).GetOrCreateMap(childrenMapKey)
}

func mintChildrenID() ChildrenListID {
	return ChildrenListID(types.NewBlockID())
}

// siblingIndexAfter returns the insertion index that places an element
// after prevID within siblings, or 0 (first) if prevID is nil or not
// found.
func siblingIndexAfter(siblings []string, prevID *types.BlockID) int {
	if prevID == nil {
		return 0
	}
	for i, s := range siblings {
		if s == string(*prevID) {
			return i + 1
		}
	}
	return 0
}

func predecessorOf(siblings []string, id types.BlockID) *types.BlockID {
	for i, s := range siblings {
		if s == string(id) && i > 0 {
			p := types.BlockID(siblings[i-1])
			return &p
		}
	}
	return nil
}

func applyInsert(root crdt.Map, action BlockAction) (Block, *BlockAction, error) {
	blocks := blocksRoot(root)
	block := action.Block
	if block.ID == "" {
		block.ID = types.NewBlockID()
	}
	if block.ParentID == "" {
		block.ParentID = action.ParentID
	}
	if block.ParentID == "" {
		return Block{}, nil, collaberrors.New(collaberrors.KindMissingRequiredData, "parent_id")
	}
	parent, ok := getBlock(blocks, block.ParentID)
	if !ok {
		return Block{}, nil, collaberrors.New(collaberrors.KindNotFound, string(block.ParentID))
	}
	if block.ChildrenID == "" {
		block.ChildrenID = mintChildrenID()
	}
	if block.Data == nil {
		block.Data = map[string]any{}
	}
	insertBlock(blocks, block)

	rel := parentchild.New(childrenMapRoot(root))
	siblings := rel.GetChildren(string(parent.ChildrenID))
	idx := siblingIndexAfter(siblings, action.PrevID)
	rel.InsertChildAt(string(parent.ChildrenID), string(block.ID), idx)

	inverse := &BlockAction{Kind: ActionDelete, Block: Block{ID: block.ID}}
	return block, inverse, nil
}

func applyUpdate(root crdt.Map, action BlockAction) (*BlockAction, error) {
	blocks := blocksRoot(root)
	if _, ok := getBlock(blocks, action.Block.ID); !ok {
		return nil, collaberrors.New(collaberrors.KindNotFound, string(action.Block.ID))
	}
	prior, _ := mergeBlockData(blocks, action.Block.ID, action.Block.Data)
	inverse := &BlockAction{Kind: ActionUpdate, Block: Block{ID: action.Block.ID, Data: prior}}
	return inverse, nil
}

// applyDelete removes id's whole subtree, including the children_map
// lists of every removed block, returning the sequence of Insert
// actions that would recreate it (parent before children, the order
// the caller replays them in).
func applyDelete(root crdt.Map, id types.BlockID) ([]BlockAction, error) {
	blocks := blocksRoot(root)
	b, ok := getBlock(blocks, id)
	if !ok {
		return nil, nil
	}
	meta := metaRoot(root)
	rel := parentchild.New(childrenMapRoot(root))

	parent, hasParent := getBlock(blocks, b.ParentID)
	var topPrev *types.BlockID
	if hasParent {
		topPrev = predecessorOf(rel.GetChildren(string(parent.ChildrenID)), id)
		rel.RemoveChild(string(parent.ChildrenID), string(id))
	}

	var snapshot []BlockAction
	var walk func(blk Block, parentID types.BlockID, prevID *types.BlockID)
	walk = func(blk Block, parentID types.BlockID, prevID *types.BlockID) {
		snapshot = append(snapshot, BlockAction{Kind: ActionInsert, Block: blk, ParentID: parentID, PrevID: prevID})
		children := rel.GetChildren(string(blk.ChildrenID))
		var prev *types.BlockID
		for _, cid := range children {
			cb, ok := getBlock(blocks, types.BlockID(cid))
			if !ok {
				continue
			}
			walk(cb, blk.ID, prev)
			id := cb.ID
			prev = &id
		}
	}
	walk(b, b.ParentID, topPrev)

	var recDelete func(blockID types.BlockID)
	recDelete = func(blockID types.BlockID) {
		blk, ok := getBlock(blocks, blockID)
		if !ok {
			return
		}
		for _, cid := range rel.GetChildren(string(blk.ChildrenID)) {
			recDelete(types.BlockID(cid))
		}
		childrenMapRoot(root).Delete(string(blk.ChildrenID))
		if blk.ExternalID != "" {
			DeleteText(meta, blk.ExternalID)
		}
		deleteBlockEntry(blocks, blockID)
	}
	recDelete(id)

	return snapshot, nil
}

func applyMove(root crdt.Map, action BlockAction) (*BlockAction, error) {
	blocks := blocksRoot(root)
	id := action.Block.ID
	b, ok := getBlock(blocks, id)
	if !ok {
		return nil, collaberrors.New(collaberrors.KindNotFound, string(id))
	}
	if action.ParentID == b.ParentID {
		return nil, nil
	}
	newParent, ok := getBlock(blocks, action.ParentID)
	if !ok {
		return nil, collaberrors.New(collaberrors.KindNotFound, string(action.ParentID))
	}
	oldParent, ok := getBlock(blocks, b.ParentID)
	if !ok {
		return nil, collaberrors.New(collaberrors.KindNotFound, string(b.ParentID))
	}

	rel := parentchild.New(childrenMapRoot(root))
	oldPrev := predecessorOf(rel.GetChildren(string(oldParent.ChildrenID)), id)
	rel.RemoveChild(string(oldParent.ChildrenID), string(id))

	idx := siblingIndexAfter(rel.GetChildren(string(newParent.ChildrenID)), action.PrevID)
	rel.InsertChildAt(string(newParent.ChildrenID), string(id), idx)

	b.ParentID = action.ParentID
	insertBlock(blocks, b)

	inverse := &BlockAction{Kind: ActionMove, Block: Block{ID: id}, ParentID: oldParent.ID, PrevID: oldPrev}
	return inverse, nil
}
