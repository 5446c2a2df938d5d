package database

import (
	"strconv"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database/typeoption"
	"github.com/cuemby/collabkit/pkg/types"
)

const fieldsKey = "fields"

// Field is one column of a Database. Settings for types other than
// the field's current Type may still be present in the stored
// type_option_data map (see TypeOption/SetTypeOption below) — this is
// what lets a column be switched from Number back to Text without
// losing the prior Number settings.
type Field struct {
	ID        types.FieldID
	Name      string
	Type      types.FieldType
	IsPrimary bool
	Width     int64
}

func fieldsRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(fieldsKey)
}

func insertField(fields crdt.Map, f Field) {
	sub := anymap.New(fields.GetOrCreateMap(string(f.ID)))
	sub.Insert("id", string(f.ID))
	sub.Insert("name", f.Name)
	sub.Insert("type", int64(f.Type))
	sub.Insert("is_primary", f.IsPrimary)
	sub.Insert("width", f.Width)
}

func fieldFromMap(m *anymap.AnyMap) Field {
	f := Field{}
	if v, ok := m.GetString("id"); ok {
		f.ID = types.FieldID(v)
	}
	f.Name, _ = m.GetString("name")
	if v, ok := m.GetInt64("type"); ok {
		f.Type = types.FieldType(v)
	}
	f.IsPrimary, _ = m.GetBool("is_primary")
	f.Width, _ = m.GetInt64("width")
	return f
}

func getField(fields crdt.Map, id types.FieldID) (Field, bool) {
	sub, ok := fields.GetMap(string(id))
	if !ok {
		return Field{}, false
	}
	return fieldFromMap(anymap.New(sub)), true
}

func updateField(fields crdt.Map, id types.FieldID, f func(*Field)) (Field, bool) {
	field, ok := getField(fields, id)
	if !ok {
		return Field{}, false
	}
	f(&field)
	insertField(fields, field)
	return field, true
}

func deleteField(fields crdt.Map, id types.FieldID) {
	fields.Delete(string(id))
}

func getAllFields(fields crdt.Map) []Field {
	out := make([]Field, 0, fields.Len())
	for _, k := range fields.Keys() {
		sub, ok := fields.GetMap(k)
		if !ok {
			continue
		}
		out = append(out, fieldFromMap(anymap.New(sub)))
	}
	return out
}

// fieldTypeOptionMap returns the nested type_option_data sub-map for
// ft under field id, creating an empty one if absent. The two-level
// layout (field -> type_option_data -> type id) is what lets a field's
// prior type settings survive a type change.
func fieldTypeOptionMap(fields crdt.Map, id types.FieldID, ft types.FieldType) *anymap.AnyMap {
	sub := fields.GetOrCreateMap(string(id))
	data := anymap.New(sub).GetOrCreateMap("type_option_data")
	return data.GetOrCreateMap(strconv.FormatInt(int64(ft), 10))
}

// TypeOption decodes the stored settings for field id's current Type.
func TypeOption(fields crdt.Map, id types.FieldID) typeoption.TypeOption {
	field, ok := getField(fields, id)
	if !ok {
		return typeoption.New(types.FieldTypeRichText)
	}
	return typeoption.Decode(field.Type, fieldTypeOptionMap(fields, id, field.Type))
}

// SetTypeOption persists opt's settings under field id's type_option_data,
// keyed by opt's own FieldType (not necessarily the field's current Type,
// so a caller can pre-seed settings for a type before switching to it).
func SetTypeOption(fields crdt.Map, id types.FieldID, opt typeoption.TypeOption) {
	m := fieldTypeOptionMap(fields, id, opt.FieldType())
	opt.WriteTo(m)
}
