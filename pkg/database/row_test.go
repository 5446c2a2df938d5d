package database

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestRow(t *testing.T) (*DatabaseRow, types.RowID) {
	t.Helper()
	store := crdt.NewStore(1, nil)
	id := types.NewRowID()
	collab, err := store.Open(context.Background(), "row:"+string(id))
	require.NoError(t, err)
	row := NewRow(collab, store, id, types.NewDatabaseID())
	t.Cleanup(func() { _ = collab.Close() })
	return row, id
}

func TestRowSeedsRootOnce(t *testing.T) {
	ctx := context.Background()
	row, id := newTestRow(t)

	data, err := row.GetRow(ctx)
	require.NoError(t, err)
	require.Equal(t, id, data.ID)
	require.True(t, data.Visibility)
	require.Equal(t, int64(defaultRowHeight), data.Height)
}

func TestRowUpdateSetsCellAndBumpsModifiedAt(t *testing.T) {
	ctx := context.Background()
	row, _ := newTestRow(t)

	before, err := row.GetRow(ctx)
	require.NoError(t, err)

	fieldID := types.NewFieldID()
	require.NoError(t, row.Update(ctx, func(m *RowMutator) {
		m.SetCell(fieldID, "hello")
		m.SetHeight(42)
	}))

	after, err := row.GetRow(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello", after.Cells[fieldID])
	require.Equal(t, int64(42), after.Height)
	require.GreaterOrEqual(t, int64(after.ModifiedAt), int64(before.ModifiedAt))
}

func TestRowGetCell(t *testing.T) {
	ctx := context.Background()
	row, _ := newTestRow(t)
	fieldID := types.NewFieldID()

	_, ok, err := row.GetCell(ctx, fieldID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, row.Update(ctx, func(m *RowMutator) { m.SetCell(fieldID, "42") }))

	raw, ok, err := row.GetCell(ctx, fieldID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "42", raw)
}

func TestRowDeletePublishesAndRemovesFromStore(t *testing.T) {
	ctx := context.Background()
	store := crdt.NewStore(1, nil)
	id := types.NewRowID()
	collab, err := store.Open(ctx, "row:"+string(id))
	require.NoError(t, err)
	row := NewRow(collab, store, id, types.NewDatabaseID())

	sub := row.Observe()
	defer row.Unobserve(sub)

	require.NoError(t, row.Delete(ctx))

	change := <-sub
	require.Equal(t, RowChangeDelete, change.Kind)

	exists, err := store.Exists(ctx, "row:"+string(id))
	require.NoError(t, err)
	require.False(t, exists)
}
