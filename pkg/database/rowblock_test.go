package database

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestRowBlock(t *testing.T) *RowBlock {
	t.Helper()
	store := crdt.NewStore(1, nil)
	rb := NewRowBlock(types.NewDatabaseID(), store)
	t.Cleanup(rb.Close)
	return rb
}

func TestRowBlockCreateAndGetRow(t *testing.T) {
	ctx := context.Background()
	rb := newTestRowBlock(t)

	order, err := rb.CreateRow(ctx, types.NewRowID())
	require.NoError(t, err)

	data, err := rb.GetRow(ctx, order.RowID)
	require.NoError(t, err)
	require.Equal(t, order.RowID, data.ID)
}

func TestRowBlockGetRowMissingEnqueuesAsyncFetch(t *testing.T) {
	ctx := context.Background()
	rb := newTestRowBlock(t)

	sub := rb.Observe()
	defer rb.Unobserve(sub)

	missing := types.NewRowID()
	placeholder, err := rb.GetRow(ctx, missing)
	require.NoError(t, err)
	require.Equal(t, missing, placeholder.ID)
	require.Empty(t, placeholder.Cells)

	// openFromPersistence reports KindNotFound for missing, so
	// fetchWithRetry exhausts all fetchMaxAttempts retries (backoff
	// summing to just under 4s) before the event fires.
	select {
	case evt := <-sub:
		require.Equal(t, CacheEventDidFetchRow, evt.Kind)
		require.Len(t, evt.Rows, 1)
		require.False(t, evt.Rows[0].Found)
	case <-time.After(6 * time.Second):
		t.Fatal("timed out waiting for CacheEventDidFetchRow")
	}
}

func TestRowBlockCreateRowsBulkFanOut(t *testing.T) {
	ctx := context.Background()
	rb := newTestRowBlock(t)

	ids := make([]types.RowID, 0, 150)
	for i := 0; i < 150; i++ {
		ids = append(ids, types.NewRowID())
	}
	orders, err := rb.CreateRows(ctx, ids)
	require.NoError(t, err)
	require.Len(t, orders, 150)

	for _, id := range ids {
		data, err := rb.GetRow(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, data.ID)
	}
}

func TestRowBlockDeleteRowIsNoOpWhenMissing(t *testing.T) {
	ctx := context.Background()
	rb := newTestRowBlock(t)
	require.NoError(t, rb.DeleteRow(ctx, types.NewRowID()))
}

func TestRowBlockUpdateRowOpensFromPersistenceWhenUncached(t *testing.T) {
	ctx := context.Background()
	store := crdt.NewStore(1, nil)
	databaseID := types.NewDatabaseID()

	rb1 := NewRowBlock(databaseID, store)
	order, err := rb1.CreateRow(ctx, types.NewRowID())
	require.NoError(t, err)
	rb1.Close()

	rb2 := NewRowBlock(databaseID, store)
	defer rb2.Close()

	fieldID := types.NewFieldID()
	require.NoError(t, rb2.UpdateRow(ctx, order.RowID, func(m *RowMutator) {
		m.SetCell(fieldID, "value")
	}))

	data, err := rb2.GetRow(ctx, order.RowID)
	require.NoError(t, err)
	require.Equal(t, "value", data.Cells[fieldID])
}
