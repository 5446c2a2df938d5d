package anymap

import (
	"strconv"

	"github.com/cuemby/collabkit/pkg/crdt"
)

// ItemFields reads one structured array element (a select option, row
// order, field order, filter, sort, or group) into a plain
// map[string]any. Elements written directly via Array.Push before any
// persistence round-trip are stored as map[string]any; the same
// elements read back after EncodeCollabV1/ApplyUpdate round-trips
// through JSON decode as a crdt.Map instead (see crdt.fromPlain).
// Every reader of a structured array element must go through this
// function rather than type-asserting directly, or it breaks the
// moment the document has been persisted and reloaded once.
func ItemFields(v crdt.Value) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case crdt.Map:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			if val, ok := t.Get(k); ok {
				out[k] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// FieldString reads a string field out of a decoded ItemFields map.
func FieldString(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// FieldInt64 reads an int64 field, accepting a float64 with no
// fractional part (the shape json.Number decodes whole numbers to
// after a persistence round-trip when the fast path isn't taken).
func FieldInt64(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// FieldBool reads a bool field.
func FieldBool(m map[string]any, key string) (bool, bool) {
	b, ok := m[key].(bool)
	return b, ok
}
