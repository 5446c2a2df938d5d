package database

import (
	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

const viewsKey = "views"

// RowOrder is one entry of a view's row_orders array: which row
// renders at this position, and the height it last rendered at (a
// cache hint so list layouts don't have to open every row just to
// size a scroll region).
type RowOrder struct {
	RowID  types.RowID
	Height int64
}

// FieldOrder is one entry of a view's field_orders array.
type FieldOrder struct {
	FieldID types.FieldID
}

// DatabaseView is one DatabaseViewMap entry: one way of rendering a
// Database (a grid, a board, a calendar, ...).
type DatabaseView struct {
	ID         types.ViewID
	DatabaseID types.DatabaseID
	Name       string
	Layout     types.ViewLayout
	IsInline   bool
	CreatedAt  types.Timestamp
	ModifiedAt types.Timestamp
}

func databaseViewsRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(viewsKey)
}

func insertDatabaseView(views crdt.Map, v DatabaseView) {
	if v.CreatedAt == 0 {
		v.CreatedAt = types.Now()
	}
	if v.ModifiedAt == 0 {
		v.ModifiedAt = types.Now()
	}
	sub := anymap.New(views.GetOrCreateMap(string(v.ID)))
	sub.Insert("id", string(v.ID))
	sub.Insert("database_id", string(v.DatabaseID))
	sub.Insert("name", v.Name)
	sub.Insert("layout", int64(v.Layout))
	sub.Insert("is_inline", v.IsInline)
	sub.Insert("created_at", int64(v.CreatedAt))
	sub.Insert("modified_at", int64(v.ModifiedAt))
}

func databaseViewFromMap(m *anymap.AnyMap) DatabaseView {
	v := DatabaseView{}
	if s, ok := m.GetString("id"); ok {
		v.ID = types.ViewID(s)
	}
	if s, ok := m.GetString("database_id"); ok {
		v.DatabaseID = types.DatabaseID(s)
	}
	v.Name, _ = m.GetString("name")
	if l, ok := m.GetInt64("layout"); ok {
		v.Layout = types.ViewLayout(l)
	}
	v.IsInline, _ = m.GetBool("is_inline")
	if ts, ok := m.GetInt64("created_at"); ok {
		v.CreatedAt = types.Timestamp(ts)
	}
	if ts, ok := m.GetInt64("modified_at"); ok {
		v.ModifiedAt = types.Timestamp(ts)
	}
	return v
}

func getDatabaseView(views crdt.Map, id types.ViewID) (*anymap.AnyMap, DatabaseView, bool) {
	sub, ok := views.GetMap(string(id))
	if !ok {
		return nil, DatabaseView{}, false
	}
	m := anymap.New(sub)
	return m, databaseViewFromMap(m), true
}

func getAllDatabaseViews(views crdt.Map) []DatabaseView {
	out := make([]DatabaseView, 0, views.Len())
	for _, k := range views.Keys() {
		sub, ok := views.GetMap(k)
		if !ok {
			continue
		}
		out = append(out, databaseViewFromMap(anymap.New(sub)))
	}
	return out
}

// UpdateAllViews applies f to every view sub-map of views, the
// standard fan-out used when a row or field is created/removed so
// that row_orders and field_orders stay in sync everywhere the
// database is rendered.
func UpdateAllViews(views crdt.Map, f func(viewID types.ViewID, view *anymap.AnyMap)) {
	for _, k := range views.Keys() {
		sub, ok := views.GetMap(k)
		if !ok {
			continue
		}
		f(types.ViewID(k), anymap.New(sub))
	}
}

func rowOrderFields(o RowOrder) map[string]any {
	return map[string]any{"row_id": string(o.RowID), "height": o.Height}
}

func rowOrderFromFields(m map[string]any) RowOrder {
	o := RowOrder{}
	if s, ok := anymap.FieldString(m, "row_id"); ok {
		o.RowID = types.RowID(s)
	}
	o.Height, _ = anymap.FieldInt64(m, "height")
	return o
}

// RowOrders reads view's row_orders array in order.
func RowOrders(view *anymap.AnyMap) []RowOrder {
	arr, ok := view.GetArray("row_orders")
	if !ok {
		return nil
	}
	out := make([]RowOrder, 0, arr.Len())
	for _, item := range arr.Items() {
		if f, ok := anymap.ItemFields(item); ok {
			out = append(out, rowOrderFromFields(f))
		}
	}
	return out
}

// InsertRowOrder inserts o after prevID's position, or appends if
// prevID is nil or not found.
func InsertRowOrder(view *anymap.AnyMap, o RowOrder, prevID *types.RowID) {
	arr := view.GetOrCreateArray("row_orders")
	idx := arr.Len()
	if prevID != nil {
		for i, item := range arr.Items() {
			f, ok := anymap.ItemFields(item)
			if !ok {
				continue
			}
			if s, _ := anymap.FieldString(f, "row_id"); types.RowID(s) == *prevID {
				idx = i + 1
				break
			}
		}
	}
	arr.InsertAt(idx, rowOrderFields(o))
}

// RemoveRowOrder deletes the row_orders entry for id, if present.
func RemoveRowOrder(view *anymap.AnyMap, id types.RowID) {
	arr := view.GetOrCreateArray("row_orders")
	for i, item := range arr.Items() {
		f, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		if s, _ := anymap.FieldString(f, "row_id"); types.RowID(s) == id {
			arr.RemoveAt(i)
			return
		}
	}
}

// MoveRowOrder reorders row_orders so fromID ends up immediately before
// toID. If from < to, removing fromID shifts toID's index down by one,
// so the post-removal target is to-1; if from > to, toID's index is
// unaffected by the removal, so the target is to (SPEC_FULL.md §4.10's
// bit-for-bit contract).
func MoveRowOrder(view *anymap.AnyMap, fromID, toID types.RowID) {
	arr := view.GetOrCreateArray("row_orders")
	items := arr.Items()
	from, to := -1, -1
	for i, item := range items {
		f, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		s, _ := anymap.FieldString(f, "row_id")
		switch types.RowID(s) {
		case fromID:
			from = i
		case toID:
			to = i
		}
	}
	if from < 0 || to < 0 || from == to {
		return
	}
	target := to - 1
	if from > to {
		target = to
	}
	arr.Move(from, target)
}

func fieldOrderFields(o FieldOrder) map[string]any {
	return map[string]any{"field_id": string(o.FieldID)}
}

func fieldOrderFromFields(m map[string]any) FieldOrder {
	o := FieldOrder{}
	if s, ok := anymap.FieldString(m, "field_id"); ok {
		o.FieldID = types.FieldID(s)
	}
	return o
}

// FieldOrders reads view's field_orders array in order.
func FieldOrders(view *anymap.AnyMap) []FieldOrder {
	arr, ok := view.GetArray("field_orders")
	if !ok {
		return nil
	}
	out := make([]FieldOrder, 0, arr.Len())
	for _, item := range arr.Items() {
		if f, ok := anymap.ItemFields(item); ok {
			out = append(out, fieldOrderFromFields(f))
		}
	}
	return out
}

// InsertFieldOrder appends a field_orders entry for id.
func InsertFieldOrder(view *anymap.AnyMap, o FieldOrder) {
	view.GetOrCreateArray("field_orders").Push(fieldOrderFields(o))
}

// RemoveFieldOrder deletes the field_orders entry for id, if present.
func RemoveFieldOrder(view *anymap.AnyMap, id types.FieldID) {
	arr := view.GetOrCreateArray("field_orders")
	for i, item := range arr.Items() {
		f, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		if s, _ := anymap.FieldString(f, "field_id"); types.FieldID(s) == id {
			arr.RemoveAt(i)
			return
		}
	}
}

// structuredListOp is shared by filters/sorts/groups: keyed by their
// own id, Insert either replaces by id or pushes, Remove deletes by id.
func structuredListOp(view *anymap.AnyMap, listKey string) *structuredList {
	return &structuredList{arr: view.GetOrCreateArray(listKey)}
}

type structuredList struct {
	arr crdt.Array
}

// Upsert replaces the entry whose "id" field equals data["id"], or
// appends it if no entry matches.
func (l *structuredList) Upsert(data map[string]any) {
	id, _ := anymap.FieldString(data, "id")
	for i, item := range l.arr.Items() {
		f, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		existing, _ := anymap.FieldString(f, "id")
		if existing == id {
			l.arr.RemoveAt(i)
			l.arr.InsertAt(i, data)
			return
		}
	}
	l.arr.Push(data)
}

// Remove deletes the entry whose "id" field equals id.
func (l *structuredList) Remove(id string) {
	for i, item := range l.arr.Items() {
		f, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		if existing, _ := anymap.FieldString(f, "id"); existing == id {
			l.arr.RemoveAt(i)
			return
		}
	}
}

// All returns every entry in the list.
func (l *structuredList) All() []map[string]any {
	items := l.arr.Items()
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if f, ok := anymap.ItemFields(item); ok {
			out = append(out, f)
		}
	}
	return out
}

// Filters returns the filters structured-list handle for view.
func Filters(view *anymap.AnyMap) *structuredList { return structuredListOp(view, "filters") }

// Sorts returns the sorts structured-list handle for view.
func Sorts(view *anymap.AnyMap) *structuredList { return structuredListOp(view, "sorts") }

// Groups returns the groups structured-list handle for view.
func Groups(view *anymap.AnyMap) *structuredList { return structuredListOp(view, "groups") }

// Calculations returns the calculations structured-list handle for view.
func Calculations(view *anymap.AnyMap) *structuredList { return structuredListOp(view, "calculations") }

// LayoutSettings returns the per-layout settings sub-map for view.
func LayoutSettings(view *anymap.AnyMap, layout types.ViewLayout) *anymap.AnyMap {
	settings := view.GetOrCreateMap("layout_settings")
	return settings.GetOrCreateMap(layoutSettingsKey(layout))
}

func layoutSettingsKey(layout types.ViewLayout) string {
	return layout.String()
}

// FieldSettings returns the per-field settings sub-map for fieldID in view.
func FieldSettings(view *anymap.AnyMap, fieldID types.FieldID) *anymap.AnyMap {
	settings := view.GetOrCreateMap("field_settings")
	return settings.GetOrCreateMap(string(fieldID))
}
