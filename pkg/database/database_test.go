package database

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) (*Database, types.ViewID) {
	t.Helper()
	ctx := context.Background()
	store := crdt.NewStore(1, nil)
	viewID := types.NewViewID()
	d, err := CreateWithInlineView(ctx, store, CreateDatabaseParams{
		ViewID: viewID, ViewName: "Grid 1", Layout: types.ViewLayoutGrid,
	})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, viewID
}

// S1
func TestCreateRowAppearsInInlineViewAtDefaultHeight(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	order, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)

	rows, err := d.GetRowsForView(ctx, v1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, order.RowID, rows[0].ID)

	orders, err := d.viewRowOrders(ctx, v1)
	require.NoError(t, err)
	require.Equal(t, []RowOrder{{RowID: order.RowID, Height: 60}}, orders)
}

// S2
func TestMoveRowOrderSequence(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	r1, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)
	r2, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)
	r3, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)

	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		sub, _ := views.GetMap(string(v1))
		MoveRowOrder(anymap.New(sub), r3.RowID, r2.RowID)
		return nil
	})
	require.NoError(t, err)

	orders, err := d.viewRowOrders(ctx, v1)
	require.NoError(t, err)
	require.Equal(t, []types.RowID{r1.RowID, r3.RowID, r2.RowID}, rowIDs(orders))

	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		sub, _ := views.GetMap(string(v1))
		MoveRowOrder(anymap.New(sub), r2.RowID, r1.RowID)
		return nil
	})
	require.NoError(t, err)

	orders, err = d.viewRowOrders(ctx, v1)
	require.NoError(t, err)
	require.Equal(t, []types.RowID{r2.RowID, r1.RowID, r3.RowID}, rowIDs(orders))
}

// S3
func TestMoveRowOrderIsPerView(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	v2View, err := d.CreateLinkedView(ctx, CreateDatabaseParams{ViewName: "Grid 2", Layout: types.ViewLayoutGrid})
	require.NoError(t, err)

	r1, _ := d.CreateRow(ctx, CreateRowParams{})
	r2, _ := d.CreateRow(ctx, CreateRowParams{})
	r3, _ := d.CreateRow(ctx, CreateRowParams{})

	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		sub, _ := views.GetMap(string(v1))
		MoveRowOrder(anymap.New(sub), r3.RowID, r2.RowID)
		return nil
	})
	require.NoError(t, err)

	ordersV2, err := d.viewRowOrders(ctx, v2View.ID)
	require.NoError(t, err)
	require.Equal(t, []types.RowID{r1.RowID, r2.RowID, r3.RowID}, rowIDs(ordersV2))
}

// S4
func TestCreateRowInViewInsertsAfterPrev(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	r1, _ := d.CreateRow(ctx, CreateRowParams{})
	r2, _ := d.CreateRow(ctx, CreateRowParams{})
	r3, _ := d.CreateRow(ctx, CreateRowParams{})

	r4, err := d.CreateRowInView(ctx, v1, CreateRowParams{}, &r2.RowID)
	require.NoError(t, err)
	orders, _ := d.viewRowOrders(ctx, v1)
	require.Equal(t, []types.RowID{r1.RowID, r2.RowID, r4.RowID, r3.RowID}, rowIDs(orders))

	r5, err := d.CreateRowInView(ctx, v1, CreateRowParams{}, nil)
	require.NoError(t, err)
	orders, _ = d.viewRowOrders(ctx, v1)
	require.Equal(t, []types.RowID{r5.RowID, r1.RowID, r2.RowID, r4.RowID, r3.RowID}, rowIDs(orders))

	notFound := types.RowID("not-a-real-row")
	r6, err := d.CreateRowInView(ctx, v1, CreateRowParams{}, &notFound)
	require.NoError(t, err)
	orders, _ = d.viewRowOrders(ctx, v1)
	require.Equal(t, r6.RowID, orders[len(orders)-1].RowID)
}

// S5 / Invariant 4
func TestDuplicateRowInsertsImmediatelyAfterSource(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	field, err := d.CreateField(ctx, "Name", types.FieldTypeRichText)
	require.NoError(t, err)

	r1, _ := d.CreateRow(ctx, CreateRowParams{})
	r2, err := d.CreateRow(ctx, CreateRowParams{Cells: map[types.FieldID]string{field.ID: "hello"}})
	require.NoError(t, err)
	r3, _ := d.CreateRow(ctx, CreateRowParams{})

	dup, err := d.DuplicateRow(ctx, r2.RowID)
	require.NoError(t, err)

	orders, _ := d.viewRowOrders(ctx, v1)
	require.Equal(t, []types.RowID{r1.RowID, r2.RowID, dup.RowID, r3.RowID}, rowIDs(orders))

	src, err := d.rows.GetRow(ctx, r2.RowID)
	require.NoError(t, err)
	dupRow, err := d.rows.GetRow(ctx, dup.RowID)
	require.NoError(t, err)
	require.Equal(t, src.Cells, dupRow.Cells)
	require.Equal(t, src.Height, dupRow.Height)
}

func TestCreateFieldAppearsInEveryViewAndDeleteCascades(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)
	v2, err := d.CreateLinkedView(ctx, CreateDatabaseParams{ViewName: "Grid 2", Layout: types.ViewLayoutGrid})
	require.NoError(t, err)

	field, err := d.CreateField(ctx, "Status", types.FieldTypeSingleSelect)
	require.NoError(t, err)

	idx1, ok, err := d.IndexOfField(ctx, v1, field.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, idx1)

	idx2, ok, err := d.IndexOfField(ctx, v2.ID, field.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, idx2)

	require.NoError(t, d.DeleteField(ctx, field.ID))

	_, ok, err = d.IndexOfField(ctx, v1, field.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveRowStripsFromAllViews(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	r1, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)

	require.NoError(t, d.RemoveRow(ctx, r1.RowID))

	orders, err := d.viewRowOrders(ctx, v1)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestValidateAndEnsureInlineView(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	require.NoError(t, d.Validate(ctx))

	// Corrupt: unmark the only view's inline flag directly, and add a
	// second view, simulating data written by something other than
	// this package's own mutators.
	require.NoError(t, d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		views := databaseViewsRoot(txn.Root())
		sub, _ := views.GetMap(string(v1))
		anymap.New(sub).Insert("is_inline", false)
		insertDatabaseView(views, DatabaseView{ID: types.NewViewID(), DatabaseID: d.id, Name: "Grid 2"})
		return nil
	}))

	require.ErrorIs(t, d.Validate(ctx), ErrNoInlineView)

	changed, err := d.EnsureInlineView(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, d.Validate(ctx))

	changed, err = d.EnsureInlineView(ctx)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestPruneOrphanedOrders(t *testing.T) {
	ctx := context.Background()
	d, v1 := newTestDatabase(t)

	row, err := d.CreateRow(ctx, CreateRowParams{})
	require.NoError(t, err)
	field, err := d.CreateField(ctx, "Name", types.FieldTypeRichText)
	require.NoError(t, err)

	// Inject dangling orders directly, bypassing the cascading removal
	// every public mutator performs.
	require.NoError(t, d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		views := databaseViewsRoot(txn.Root())
		sub, _ := views.GetMap(string(v1))
		view := anymap.New(sub)
		InsertRowOrder(view, RowOrder{RowID: types.NewRowID()}, nil)
		InsertFieldOrder(view, FieldOrder{FieldID: types.NewFieldID()})
		return nil
	}))

	n, err := d.PruneOrphanedOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	orders, err := d.viewRowOrders(ctx, v1)
	require.NoError(t, err)
	require.Equal(t, []types.RowID{row.RowID}, rowIDs(orders))

	idx, ok, err := d.IndexOfField(ctx, v1, field.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, idx)

	n, err = d.PruneOrphanedOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func rowIDs(orders []RowOrder) []types.RowID {
	out := make([]types.RowID, len(orders))
	for i, o := range orders {
		out[i] = o.RowID
	}
	return out
}
