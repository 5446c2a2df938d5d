package document

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T) (*Document, types.BlockID) {
	t.Helper()
	ctx := context.Background()
	collab := crdt.NewCollab("document-test")
	t.Cleanup(func() { _ = collab.Close() })

	d := New(collab)
	t.Cleanup(d.Close)

	pageID := types.NewBlockID()
	require.NoError(t, d.Create(ctx, CreateParams{PageID: pageID, PageType: "page"}))
	return d, pageID
}

func TestCreateAndOpen(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	require.NoError(t, d.Open(ctx))

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	require.Equal(t, pageID, data.PageID)
	require.Len(t, data.Blocks, 1)
	require.Contains(t, data.Blocks, pageID)

	// Create is a no-op once page_id is already set.
	require.NoError(t, d.Create(ctx, CreateParams{PageID: types.NewBlockID(), PageType: "page"}))
	data2, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	require.Equal(t, pageID, data2.PageID)
}

func TestOpenWithoutCreateReturnsErrNoPage(t *testing.T) {
	ctx := context.Background()
	collab := crdt.NewCollab("document-empty")
	t.Cleanup(func() { _ = collab.Close() })
	d := New(collab)
	t.Cleanup(d.Close)

	require.ErrorIs(t, d.Open(ctx), ErrNoPage)
}

func TestApplyActionInsertOrdersChildren(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	results, err := d.ApplyAction(ctx, []BlockAction{
		{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	a := results[0].ID

	results, err = d.ApplyAction(ctx, []BlockAction{
		{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID, PrevID: &a},
	})
	require.NoError(t, err)
	b := results[0].ID

	results, err = d.ApplyAction(ctx, []BlockAction{
		{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID},
	})
	require.NoError(t, err)
	c := results[0].ID

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	page := data.Blocks[pageID]
	require.Equal(t, []types.BlockID{c, a, b}, data.ChildrenMap[page.ChildrenID])
}

// S7
func TestApplyActionDeleteRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	resA, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID}})
	require.NoError(t, err)
	a := resA[0].ID

	resB, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: a}})
	require.NoError(t, err)
	resC, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: a, PrevID: &resB[0].ID}})
	require.NoError(t, err)
	_ = resC

	_, err = d.ApplyAction(ctx, []BlockAction{{Kind: ActionDelete, Block: Block{ID: a}}})
	require.NoError(t, err)

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Blocks, 1)
	require.Contains(t, data.Blocks, pageID)

	page := data.Blocks[pageID]
	require.Empty(t, data.ChildrenMap[page.ChildrenID])
}

func TestApplyActionUpdateMergesData(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	res, err := d.ApplyAction(ctx, []BlockAction{
		{Kind: ActionInsert, Block: Block{Type: "text", Data: map[string]any{"level": int64(1)}}, ParentID: pageID},
	})
	require.NoError(t, err)
	id := res[0].ID

	_, err = d.ApplyAction(ctx, []BlockAction{
		{Kind: ActionUpdate, Block: Block{ID: id, Data: map[string]any{"level": int64(2), "checked": true}}},
	})
	require.NoError(t, err)

	b, ok, err := d.GetBlock(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), b.Data["level"])
	require.Equal(t, true, b.Data["checked"])
}

func TestApplyActionMoveAcrossParents(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	resA, _ := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID}})
	a := resA[0].ID
	resB, _ := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID, PrevID: &a}})
	b := resB[0].ID
	resC, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID, PrevID: &b}})
	require.NoError(t, err)
	c := resC[0].ID

	_, err = d.ApplyAction(ctx, []BlockAction{{Kind: ActionMove, Block: Block{ID: c}, ParentID: a}})
	require.NoError(t, err)

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	page := data.Blocks[pageID]
	require.Equal(t, []types.BlockID{a, b}, data.ChildrenMap[page.ChildrenID])
	blockA := data.Blocks[a]
	require.Equal(t, []types.BlockID{c}, data.ChildrenMap[blockA.ChildrenID])
	require.Equal(t, a, data.Blocks[c].ParentID)

	// same-parent move is a no-op.
	_, err = d.ApplyAction(ctx, []BlockAction{{Kind: ActionMove, Block: Block{ID: b}, ParentID: pageID}})
	require.NoError(t, err)
}

func TestUndoRedoInsert(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	res, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID}})
	require.NoError(t, err)
	id := res[0].ID

	ok, err := d.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, found, err := d.GetBlock(ctx, id)
	require.NoError(t, err)
	require.False(t, found)

	ok, err = d.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, found, err = d.GetBlock(ctx, id)
	require.NoError(t, err)
	require.True(t, found)

	ok, err = d.Redo(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUndoDeleteRestoresSubtree(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	resA, _ := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text", Data: map[string]any{"x": int64(1)}}, ParentID: pageID}})
	a := resA[0].ID
	resB, _ := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: a}})
	b := resB[0].ID

	_, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionDelete, Block: Block{ID: a}}})
	require.NoError(t, err)

	ok, err := d.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	restoredA, found, err := d.GetBlock(ctx, a)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), restoredA.Data["x"])

	_, found, err = d.GetBlock(ctx, b)
	require.NoError(t, err)
	require.True(t, found)

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.BlockID{b}, data.ChildrenMap[restoredA.ChildrenID])
}

func TestPruneOrphanedChildren(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	resA, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID}})
	require.NoError(t, err)
	a := resA[0].ID

	page, ok, err := d.GetBlock(ctx, pageID)
	require.NoError(t, err)
	require.True(t, ok)

	// Inject a dangling children_map entry directly — an id with no
	// corresponding block, which ApplyAction's own Delete path never
	// produces on its own.
	require.NoError(t, d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		arr, _ := childrenMapRoot(txn.Root()).GetArray(string(page.ChildrenID))
		arr.Push(string(types.NewBlockID()))
		return nil
	}))

	n, err := d.PruneOrphanedChildren(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	data, err := d.GetDocumentData(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.BlockID{a}, data.ChildrenMap[page.ChildrenID])

	n, err = d.PruneOrphanedChildren(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestObserveReceivesBlockEvents(t *testing.T) {
	ctx := context.Background()
	d, pageID := newTestDocument(t)

	sub := d.Observe()
	defer d.Unobserve(sub)

	_, err := d.ApplyAction(ctx, []BlockAction{{Kind: ActionInsert, Block: Block{Type: "text"}, ParentID: pageID}})
	require.NoError(t, err)

	evt := <-sub
	require.Equal(t, BlockInserted, evt.Kind)
}
