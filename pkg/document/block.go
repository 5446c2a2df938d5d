package document

import (
	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

// ChildrenListID identifies one block's ordered-children array within
// meta.children_map. It is minted independently of the block's own id
// (matching the original schema, where a block's children list is its
// own addressable object).
type ChildrenListID string

// Block is one node in the document's block tree.
type Block struct {
	ID           types.BlockID
	Type         string
	Data         map[string]any
	ParentID     types.BlockID
	ChildrenID   ChildrenListID
	ExternalID   string
	ExternalType string
}

const (
	keyBlockID           = "id"
	keyBlockType         = "ty"
	keyBlockParent       = "parent"
	keyBlockChildrenID   = "children_id"
	keyBlockExternalID   = "external_id"
	keyBlockExternalType = "external_type"
	keyBlockData         = "data"

	blocksKey = "blocks"
)

func blocksRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(blocksKey)
}

func blockFromMap(m *anymap.AnyMap) Block {
	b := Block{Data: map[string]any{}}
	if v, ok := m.GetString(keyBlockID); ok {
		b.ID = types.BlockID(v)
	}
	if v, ok := m.GetString(keyBlockType); ok {
		b.Type = v
	}
	if v, ok := m.GetString(keyBlockParent); ok {
		b.ParentID = types.BlockID(v)
	}
	if v, ok := m.GetString(keyBlockChildrenID); ok {
		b.ChildrenID = ChildrenListID(v)
	}
	if v, ok := m.GetString(keyBlockExternalID); ok {
		b.ExternalID = v
	}
	if v, ok := m.GetString(keyBlockExternalType); ok {
		b.ExternalType = v
	}
	if data, ok := m.GetMap(keyBlockData); ok {
		data.Iter(func(k string, v crdt.Value) { b.Data[k] = v })
	}
	return b
}

func writeBlockToMap(m *anymap.AnyMap, b Block) {
	m.Insert(keyBlockID, string(b.ID))
	m.Insert(keyBlockType, b.Type)
	m.Insert(keyBlockParent, string(b.ParentID))
	m.Insert(keyBlockChildrenID, string(b.ChildrenID))
	m.Insert(keyBlockExternalID, b.ExternalID)
	m.Insert(keyBlockExternalType, b.ExternalType)
	data := m.GetOrCreateMap(keyBlockData)
	for k, v := range b.Data {
		data.Insert(k, v)
	}
}

func insertBlock(blocks crdt.Map, b Block) {
	sub := blocks.GetOrCreateMap(string(b.ID))
	writeBlockToMap(anymap.New(sub), b)
}

func getBlock(blocks crdt.Map, id types.BlockID) (Block, bool) {
	sub, ok := blocks.GetMap(string(id))
	if !ok {
		return Block{}, false
	}
	return blockFromMap(anymap.New(sub)), true
}

// mergeBlockData overwrites b's stored data with the keys in patch,
// returning the prior values of every key patch touched (so callers
// building an undo entry can restore them exactly).
func mergeBlockData(blocks crdt.Map, id types.BlockID, patch map[string]any) (prior map[string]any, ok bool) {
	sub, exists := blocks.GetMap(string(id))
	if !exists {
		return nil, false
	}
	data := anymap.New(sub).GetOrCreateMap(keyBlockData)
	prior = make(map[string]any, len(patch))
	for k, v := range patch {
		if old, had := data.Raw().Get(k); had {
			prior[k] = old
		} else {
			prior[k] = nil
		}
		data.Insert(k, v)
	}
	return prior, true
}

func deleteBlockEntry(blocks crdt.Map, id types.BlockID) {
	blocks.Delete(string(id))
}

func getAllBlocks(blocks crdt.Map) map[types.BlockID]Block {
	out := make(map[types.BlockID]Block, blocks.Len())
	for _, k := range blocks.Keys() {
		sub, ok := blocks.GetMap(k)
		if !ok {
			continue
		}
		b := blockFromMap(anymap.New(sub))
		out[b.ID] = b
	}
	return out
}
