package database

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestView(t *testing.T) *anymap.AnyMap {
	t.Helper()
	collab := crdt.NewCollab("view-test")
	t.Cleanup(func() { _ = collab.Close() })

	var view *anymap.AnyMap
	require.NoError(t, collab.Update(context.Background(), crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		views := databaseViewsRoot(txn.Root())
		insertDatabaseView(views, DatabaseView{ID: types.NewViewID(), Name: "Grid"})
		for _, k := range views.Keys() {
			sub, _ := views.GetMap(k)
			view = anymap.New(sub)
		}
		return nil
	}))
	return view
}

func TestRowOrderInsertMoveRemove(t *testing.T) {
	view := newTestView(t)

	r1 := RowOrder{RowID: types.NewRowID(), Height: 1}
	r2 := RowOrder{RowID: types.NewRowID(), Height: 2}
	r3 := RowOrder{RowID: types.NewRowID(), Height: 3}

	InsertRowOrder(view, r1, nil)
	InsertRowOrder(view, r2, nil)
	InsertRowOrder(view, r3, nil)

	orders := RowOrders(view)
	require.Len(t, orders, 3)
	require.Equal(t, []types.RowID{r1.RowID, r2.RowID, r3.RowID}, idsOf(orders))

	// move r1 immediately before r3: from(0) < to(2) -> target = to-1 = 1
	MoveRowOrder(view, r1.RowID, r3.RowID)
	require.Equal(t, []types.RowID{r2.RowID, r1.RowID, r3.RowID}, idsOf(RowOrders(view)))

	// move r3 immediately before r2: from(2) > to(0) -> target = to = 0
	MoveRowOrder(view, r3.RowID, r2.RowID)
	require.Equal(t, []types.RowID{r3.RowID, r2.RowID, r1.RowID}, idsOf(RowOrders(view)))

	RemoveRowOrder(view, r1.RowID)
	require.Equal(t, []types.RowID{r3.RowID, r2.RowID}, idsOf(RowOrders(view)))
}

func idsOf(orders []RowOrder) []types.RowID {
	out := make([]types.RowID, len(orders))
	for i, o := range orders {
		out[i] = o.RowID
	}
	return out
}

func TestFieldOrderInsertRemove(t *testing.T) {
	view := newTestView(t)

	f1 := types.NewFieldID()
	f2 := types.NewFieldID()
	InsertFieldOrder(view, FieldOrder{FieldID: f1})
	InsertFieldOrder(view, FieldOrder{FieldID: f2})

	orders := FieldOrders(view)
	require.Len(t, orders, 2)
	require.Equal(t, f1, orders[0].FieldID)
	require.Equal(t, f2, orders[1].FieldID)

	RemoveFieldOrder(view, f1)
	orders = FieldOrders(view)
	require.Len(t, orders, 1)
	require.Equal(t, f2, orders[0].FieldID)
}

func TestStructuredListUpsertAndRemove(t *testing.T) {
	view := newTestView(t)
	filters := Filters(view)

	filters.Upsert(map[string]any{"id": "f1", "field_id": "x", "condition": "contains"})
	filters.Upsert(map[string]any{"id": "f2", "field_id": "y", "condition": "is"})
	require.Len(t, filters.All(), 2)

	filters.Upsert(map[string]any{"id": "f1", "field_id": "x", "condition": "does_not_contain"})
	all := filters.All()
	require.Len(t, all, 2)
	cond, _ := anymap.FieldString(all[0], "condition")
	require.Equal(t, "does_not_contain", cond)

	filters.Remove("f2")
	require.Len(t, filters.All(), 1)
}

func TestLayoutAndFieldSettings(t *testing.T) {
	view := newTestView(t)

	ls := LayoutSettings(view, types.ViewLayoutBoard)
	ls.Insert("group_by_field", "status")

	ls2 := LayoutSettings(view, types.ViewLayoutBoard)
	v, ok := ls2.GetString("group_by_field")
	require.True(t, ok)
	require.Equal(t, "status", v)

	fieldID := types.NewFieldID()
	fs := FieldSettings(view, fieldID)
	fs.Insert("visibility", int64(1))
	fs2 := FieldSettings(view, fieldID)
	visibility, ok := fs2.GetInt64("visibility")
	require.True(t, ok)
	require.Equal(t, int64(1), visibility)
}
