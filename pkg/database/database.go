package database

import (
	"context"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/collaberrors"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database/typeoption"
	"github.com/cuemby/collabkit/pkg/types"
)

func databaseObjectID(id types.DatabaseID) string { return "database:" + string(id) }

// ErrNoInlineView is returned by Validate when a Database has views
// but none of them is marked inline — every database needs exactly one
// inline view to be rendered at all.
var ErrNoInlineView = collaberrors.New(collaberrors.KindMissingRequiredData, "inline_view")

// CreateDatabaseParams seeds a new Database and its first (inline) view.
type CreateDatabaseParams struct {
	DatabaseID types.DatabaseID
	ViewID     types.ViewID
	ViewName   string
	Layout     types.ViewLayout
}

// CreateRowParams seeds a new row.
type CreateRowParams struct {
	RowID  types.RowID
	Cells  map[types.FieldID]string
	Height int64
}

// Database is the facade composing FieldMap + DatabaseViewMap +
// RowBlock: one Database's fields, its views, and lazily-loaded rows.
type Database struct {
	id     types.DatabaseID
	collab crdt.Collab
	store  *crdt.Store
	rows   *RowBlock
}

func (d *Database) origin() crdt.CollabOrigin { return crdt.CollabOrigin{Tag: "database"} }

// ID returns the database's identifier.
func (d *Database) ID() types.DatabaseID { return d.id }

// Rows exposes the row cache/fetch layer for callers that need direct
// access (e.g. prefetching a page of rows).
func (d *Database) Rows() *RowBlock { return d.rows }

// Close releases the RowBlock's background worker and broker.
func (d *Database) Close() {
	d.rows.Close()
}

// CreateWithInlineView creates a brand-new Database with a single
// inline view.
func CreateWithInlineView(ctx context.Context, store *crdt.Store, params CreateDatabaseParams) (*Database, error) {
	if params.DatabaseID == "" {
		params.DatabaseID = types.NewDatabaseID()
	}
	if params.ViewID == "" {
		params.ViewID = types.NewViewID()
	}
	collab, err := store.Open(ctx, databaseObjectID(params.DatabaseID))
	if err != nil {
		return nil, err
	}
	d := &Database{id: params.DatabaseID, collab: collab, store: store, rows: NewRowBlock(params.DatabaseID, store)}

	err = collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := anymap.New(txn.Root())
		root.Insert("id", string(params.DatabaseID))
		views := databaseViewsRoot(txn.Root())
		insertDatabaseView(views, DatabaseView{
			ID: params.ViewID, DatabaseID: params.DatabaseID,
			Name: params.ViewName, Layout: params.Layout, IsInline: true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetOrCreate opens the Database for id, creating an empty shell with
// no views if it doesn't already exist — callers normally reach a
// Database through CreateWithInlineView or a WorkspaceDatabase lookup
// instead.
func GetOrCreate(ctx context.Context, store *crdt.Store, id types.DatabaseID) (*Database, error) {
	collab, err := store.Open(ctx, databaseObjectID(id))
	if err != nil {
		return nil, err
	}
	d := &Database{id: id, collab: collab, store: store, rows: NewRowBlock(id, store)}
	err = collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := anymap.New(txn.Root())
		if _, ok := root.GetString("id"); !ok {
			root.Insert("id", string(id))
		}
		return nil
	})
	return d, err
}

func (d *Database) viewsForEach(ctx context.Context, f func(root crdt.Map, views crdt.Map) error) error {
	return d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		return f(txn.Root(), databaseViewsRoot(txn.Root()))
	})
}

// CreateRow creates a row and appends it to every view's row_orders.
func (d *Database) CreateRow(ctx context.Context, params CreateRowParams) (RowOrder, error) {
	if params.RowID == "" {
		params.RowID = types.NewRowID()
	}
	order, err := d.rows.CreateRow(ctx, params.RowID)
	if err != nil {
		return RowOrder{}, err
	}
	if params.Height > 0 {
		order.Height = params.Height
	}
	if len(params.Cells) > 0 || params.Height > 0 {
		if err := d.rows.UpdateRow(ctx, params.RowID, func(m *RowMutator) {
			for fieldID, raw := range params.Cells {
				m.SetCell(fieldID, raw)
			}
			if params.Height > 0 {
				m.SetHeight(params.Height)
			}
		}); err != nil {
			return RowOrder{}, err
		}
	}
	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		UpdateAllViews(views, func(_ types.ViewID, view *anymap.AnyMap) {
			InsertRowOrder(view, order, nil)
		})
		return nil
	})
	return order, err
}

// CreateRowInView creates a row, inserting it into viewID's row_orders
// after prevID (at the front if prevID is nil, at the end if prevID is
// not found), and appends it to every other view's row_orders.
func (d *Database) CreateRowInView(ctx context.Context, viewID types.ViewID, params CreateRowParams, prevID *types.RowID) (RowOrder, error) {
	if params.RowID == "" {
		params.RowID = types.NewRowID()
	}
	order, err := d.rows.CreateRow(ctx, params.RowID)
	if err != nil {
		return RowOrder{}, err
	}
	if params.Height > 0 {
		order.Height = params.Height
	}
	if len(params.Cells) > 0 || params.Height > 0 {
		if err := d.rows.UpdateRow(ctx, params.RowID, func(m *RowMutator) {
			for fieldID, raw := range params.Cells {
				m.SetCell(fieldID, raw)
			}
			if params.Height > 0 {
				m.SetHeight(params.Height)
			}
		}); err != nil {
			return RowOrder{}, err
		}
	}
	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		UpdateAllViews(views, func(id types.ViewID, view *anymap.AnyMap) {
			if id == viewID && prevID == nil {
				view.GetOrCreateArray("row_orders").InsertAt(0, rowOrderFields(order))
			} else if id == viewID {
				InsertRowOrder(view, order, prevID)
			} else {
				InsertRowOrder(view, order, nil)
			}
		})
		return nil
	})
	return order, err
}

// RemoveRow deletes rowID's state and strips it from every view's row_orders.
func (d *Database) RemoveRow(ctx context.Context, rowID types.RowID) error {
	if err := d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		UpdateAllViews(views, func(_ types.ViewID, view *anymap.AnyMap) {
			RemoveRowOrder(view, rowID)
		})
		return nil
	}); err != nil {
		return err
	}
	return d.rows.DeleteRow(ctx, rowID)
}

// UpdateRow applies f to rowID's cells.
func (d *Database) UpdateRow(ctx context.Context, rowID types.RowID, f func(*RowMutator)) error {
	return d.rows.UpdateRow(ctx, rowID, f)
}

// DuplicateRow copies rowID's cells/height/visibility under a new id,
// inserted immediately after the source in every view that contains it.
func (d *Database) DuplicateRow(ctx context.Context, rowID types.RowID) (RowOrder, error) {
	src, err := d.rows.GetRow(ctx, rowID)
	if err != nil {
		return RowOrder{}, err
	}
	newID := types.NewRowID()
	order, err := d.rows.CreateRow(ctx, newID)
	if err != nil {
		return RowOrder{}, err
	}
	order.Height = src.Height
	if err := d.rows.UpdateRow(ctx, newID, func(m *RowMutator) {
		for fieldID, raw := range src.Cells {
			m.SetCell(fieldID, raw)
		}
		m.SetHeight(src.Height)
		m.SetVisibility(src.Visibility)
	}); err != nil {
		return RowOrder{}, err
	}
	err = d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
		UpdateAllViews(views, func(_ types.ViewID, view *anymap.AnyMap) {
			for _, ro := range RowOrders(view) {
				if ro.RowID == rowID {
					InsertRowOrder(view, order, &rowID)
					return
				}
			}
		})
		return nil
	})
	return order, err
}

// CreateField creates a new column and appends it to every view's field_orders.
func (d *Database) CreateField(ctx context.Context, name string, ft types.FieldType) (Field, error) {
	field := Field{ID: types.NewFieldID(), Name: name, Type: ft}
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		insertField(fieldsRoot(root), field)
		SetTypeOption(fieldsRoot(root), field.ID, typeoption.New(ft))
		UpdateAllViews(databaseViewsRoot(root), func(_ types.ViewID, view *anymap.AnyMap) {
			InsertFieldOrder(view, FieldOrder{FieldID: field.ID})
		})
		return nil
	})
	return field, err
}

// DeleteField removes fieldID and cascades the removal into every
// view's field_orders.
func (d *Database) DeleteField(ctx context.Context, fieldID types.FieldID) error {
	return d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		deleteField(fieldsRoot(root), fieldID)
		UpdateAllViews(databaseViewsRoot(root), func(_ types.ViewID, view *anymap.AnyMap) {
			RemoveFieldOrder(view, fieldID)
		})
		return nil
	})
}

// DuplicateField copies fieldID's settings under a new id, with its
// name produced by renamer, and inserts it into viewID's field_orders
// immediately after the source.
func (d *Database) DuplicateField(ctx context.Context, viewID types.ViewID, fieldID types.FieldID, renamer func(string) string) (Field, error) {
	var dup Field
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		fields := fieldsRoot(root)
		src, ok := getField(fields, fieldID)
		if !ok {
			return collaberrors.New(collaberrors.KindNotFound, string(fieldID))
		}
		dup = Field{ID: types.NewFieldID(), Name: renamer(src.Name), Type: src.Type, Width: src.Width}
		insertField(fields, dup)

		srcOpt := TypeOption(fields, fieldID)
		SetTypeOption(fields, dup.ID, srcOpt)

		if sub, ok := databaseViewsRoot(root).GetMap(string(viewID)); ok {
			vm := anymap.New(sub)
			orders := FieldOrders(vm)
			idx := len(orders)
			for i, fo := range orders {
				if fo.FieldID == fieldID {
					idx = i + 1
					break
				}
			}
			arr := vm.GetOrCreateArray("field_orders")
			arr.InsertAt(idx, fieldOrderFields(FieldOrder{FieldID: dup.ID}))
		}
		return nil
	})
	return dup, err
}

// CreateLinkedView adds a new view over the same database, seeded
// with the inline view's current row/field orders.
func (d *Database) CreateLinkedView(ctx context.Context, params CreateDatabaseParams) (DatabaseView, error) {
	if params.ViewID == "" {
		params.ViewID = types.NewViewID()
	}
	var created DatabaseView
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		views := databaseViewsRoot(txn.Root())
		var inline *anymap.AnyMap
		for _, v := range getAllDatabaseViews(views) {
			if v.IsInline {
				sub, _ := views.GetMap(string(v.ID))
				inline = anymap.New(sub)
				break
			}
		}
		created = DatabaseView{ID: params.ViewID, DatabaseID: d.id, Name: params.ViewName, Layout: params.Layout}
		insertDatabaseView(views, created)
		sub, _ := views.GetMap(string(params.ViewID))
		newView := anymap.New(sub)
		if inline != nil {
			for _, ro := range RowOrders(inline) {
				InsertRowOrder(newView, ro, nil)
			}
			for _, fo := range FieldOrders(inline) {
				InsertFieldOrder(newView, fo)
			}
		}
		return nil
	})
	return created, err
}

// DatabaseData is the full export produced by DuplicateDatabase.
type DatabaseData struct {
	View  DatabaseView
	Rows  []RowData
}

// DuplicateDatabase creates a brand-new Database with every id
// regenerated: a new database id, a new inline view, every field
// re-keyed, every row copied with row_position always appended at the
// end.
func (d *Database) DuplicateDatabase(ctx context.Context) (*Database, DatabaseData, error) {
	var inline DatabaseView
	var fields []Field
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		root := txn.Root()
		for _, v := range getAllDatabaseViews(databaseViewsRoot(root)) {
			if v.IsInline {
				inline = v
				break
			}
		}
		fields = getAllFields(fieldsRoot(root))
		return nil
	})
	if err != nil {
		return nil, DatabaseData{}, err
	}

	rows, err := d.GetRowsForView(ctx, inline.ID)
	if err != nil {
		return nil, DatabaseData{}, err
	}

	dup, err := CreateWithInlineView(ctx, d.store, CreateDatabaseParams{
		ViewName: inline.Name, Layout: inline.Layout,
	})
	if err != nil {
		return nil, DatabaseData{}, err
	}

	fieldIDMap := make(map[types.FieldID]types.FieldID, len(fields))
	for _, f := range fields {
		newField, err := dup.CreateField(ctx, f.Name, f.Type)
		if err != nil {
			return nil, DatabaseData{}, err
		}
		fieldIDMap[f.ID] = newField.ID
	}

	newRows := make([]RowData, 0, len(rows))
	for _, row := range rows {
		cells := make(map[types.FieldID]string, len(row.Cells))
		for fid, raw := range row.Cells {
			if newFid, ok := fieldIDMap[fid]; ok {
				cells[newFid] = raw
			}
		}
		order, err := dup.CreateRow(ctx, CreateRowParams{Cells: cells, Height: row.Height})
		if err != nil {
			return nil, DatabaseData{}, err
		}
		newRow, err := dup.rows.GetRow(ctx, order.RowID)
		if err != nil {
			return nil, DatabaseData{}, err
		}
		newRows = append(newRows, newRow)
	}

	var dupInline DatabaseView
	_ = dup.collab.View(ctx, func(txn crdt.ReadTxn) error {
		for _, v := range getAllDatabaseViews(databaseViewsRoot(txn.Root())) {
			if v.IsInline {
				dupInline = v
				break
			}
		}
		return nil
	})

	return dup, DatabaseData{View: dupInline, Rows: newRows}, nil
}

// GetRowsForView returns rows in viewID's row_orders order.
func (d *Database) GetRowsForView(ctx context.Context, viewID types.ViewID) ([]RowData, error) {
	orders, err := d.viewRowOrders(ctx, viewID)
	if err != nil {
		return nil, err
	}
	return d.rows.GetRowsFromRowOrders(ctx, orders)
}

func (d *Database) viewRowOrders(ctx context.Context, viewID types.ViewID) ([]RowOrder, error) {
	var orders []RowOrder
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		sub, ok := databaseViewsRoot(txn.Root()).GetMap(string(viewID))
		if !ok {
			return collaberrors.New(collaberrors.KindNotFound, string(viewID))
		}
		orders = RowOrders(anymap.New(sub))
		return nil
	})
	return orders, err
}

// GetCellsForField returns fieldID's raw cell value for every row in
// viewID's row_orders order.
func (d *Database) GetCellsForField(ctx context.Context, viewID types.ViewID, fieldID types.FieldID) ([]string, error) {
	rows, err := d.GetRowsForView(ctx, viewID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Cells[fieldID]
	}
	return out, nil
}

// GetView reads viewID's current state.
func (d *Database) GetView(ctx context.Context, viewID types.ViewID) (DatabaseView, bool, error) {
	var v DatabaseView
	var ok bool
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		_, v, ok = getDatabaseView(databaseViewsRoot(txn.Root()), viewID)
		return nil
	})
	return v, ok, err
}

// IndexOfRow returns rowID's position in viewID's row_orders.
func (d *Database) IndexOfRow(ctx context.Context, viewID types.ViewID, rowID types.RowID) (int, bool, error) {
	orders, err := d.viewRowOrders(ctx, viewID)
	if err != nil {
		return 0, false, err
	}
	for i, o := range orders {
		if o.RowID == rowID {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// IndexOfField returns fieldID's position in viewID's field_orders.
func (d *Database) IndexOfField(ctx context.Context, viewID types.ViewID, fieldID types.FieldID) (int, bool, error) {
	var idx int
	var found bool
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		sub, ok := databaseViewsRoot(txn.Root()).GetMap(string(viewID))
		if !ok {
			return collaberrors.New(collaberrors.KindNotFound, string(viewID))
		}
		for i, fo := range FieldOrders(anymap.New(sub)) {
			if fo.FieldID == fieldID {
				idx, found = i, true
				return nil
			}
		}
		return nil
	})
	return idx, found, err
}

// Validate returns ErrNoInlineView if the database has at least one
// view but none of them is marked inline. A database with zero views
// is not itself an error here — CreateWithInlineView always seeds one,
// so a view-less database only arises via GetOrCreate against an id
// nothing has written views for yet.
func (d *Database) Validate(ctx context.Context) error {
	var hasViews, hasInline bool
	err := d.collab.View(ctx, func(txn crdt.ReadTxn) error {
		for _, v := range getAllDatabaseViews(databaseViewsRoot(txn.Root())) {
			hasViews = true
			if v.IsInline {
				hasInline = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if hasViews && !hasInline {
		return ErrNoInlineView
	}
	return nil
}

// EnsureInlineView marks the first view as inline if the database has
// views but none of them is currently inline — a shape that should
// never arise from this package's own mutators but that repair needs
// to recognize and fix on an inherited or partially-written document.
// Reports whether it changed anything.
func (d *Database) EnsureInlineView(ctx context.Context) (bool, error) {
	var changed bool
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		views := databaseViewsRoot(txn.Root())
		all := getAllDatabaseViews(views)
		if len(all) == 0 {
			return nil
		}
		for _, v := range all {
			if v.IsInline {
				return nil
			}
		}
		sub, ok := views.GetMap(string(all[0].ID))
		if !ok {
			return nil
		}
		anymap.New(sub).Insert("is_inline", true)
		changed = true
		return nil
	})
	return changed, err
}

// PruneOrphanedOrders removes row_orders/field_orders entries from
// every view that reference a row or field id no longer present in
// this database. Returns the number of entries removed.
func (d *Database) PruneOrphanedOrders(ctx context.Context) (int, error) {
	removed := 0
	err := d.collab.Update(ctx, d.origin(), func(txn crdt.WriteTxn) error {
		root := txn.Root()
		fieldIDs := make(map[types.FieldID]bool)
		for _, f := range getAllFields(fieldsRoot(root)) {
			fieldIDs[f.ID] = true
		}
		UpdateAllViews(databaseViewsRoot(root), func(_ types.ViewID, view *anymap.AnyMap) {
			for _, fo := range FieldOrders(view) {
				if !fieldIDs[fo.FieldID] {
					RemoveFieldOrder(view, fo.FieldID)
					removed++
				}
			}
		})
		return nil
	})
	if err != nil {
		return removed, err
	}

	for _, ro := range func() []RowOrder {
		var all []RowOrder
		_ = d.collab.View(ctx, func(txn crdt.ReadTxn) error {
			for _, k := range databaseViewsRoot(txn.Root()).Keys() {
				sub, ok := databaseViewsRoot(txn.Root()).GetMap(k)
				if !ok {
					continue
				}
				all = append(all, RowOrders(anymap.New(sub))...)
			}
			return nil
		})
		return all
	}() {
		exists, err := d.rows.Exists(ctx, ro.RowID)
		if err != nil {
			return removed, err
		}
		if exists {
			continue
		}
		if err := d.viewsForEach(ctx, func(_ crdt.Map, views crdt.Map) error {
			UpdateAllViews(views, func(_ types.ViewID, view *anymap.AnyMap) {
				RemoveRowOrder(view, ro.RowID)
			})
			return nil
		}); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
