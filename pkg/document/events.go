package document

import "github.com/cuemby/collabkit/pkg/types"

// BlockChangeKind classifies a BlockEvent.
type BlockChangeKind int

const (
	BlockInserted BlockChangeKind = iota
	BlockUpdated
	BlockDeleted
	BlockMoved
)

// BlockEvent is published whenever ApplyAction commits an action
// against a block. Path is the chain of ancestor block ids from the
// page root down to (but not including) BlockID, for observers that
// need to know where in the tree the change happened.
type BlockEvent struct {
	Kind    BlockChangeKind
	BlockID types.BlockID
	Path    []types.BlockID
}
