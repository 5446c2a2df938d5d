// Package anymap wraps a crdt.Map with typed accessors, so domain code
// reads "the int64 at key x" instead of performing its own type switch
// on crdt.Value everywhere a field is read. Every domain engine's
// per-entity data (a Field's type options, a Row's cell values, a
// Block's data payload) is stored this way.
package anymap

import (
	"strconv"

	"github.com/cuemby/collabkit/pkg/crdt"
)

// AnyMap is a thin, typed view over a crdt.Map.
type AnyMap struct {
	inner crdt.Map
}

// New wraps an existing crdt.Map.
func New(m crdt.Map) *AnyMap {
	return &AnyMap{inner: m}
}

// Raw returns the underlying crdt.Map for callers that need array or
// nested-map access this wrapper doesn't cover.
func (a *AnyMap) Raw() crdt.Map {
	return a.inner
}

// GetAs reads key and type-asserts it to T, returning ok=false if the
// key is absent or holds a different concrete type.
func GetAs[T any](a *AnyMap, key string) (T, bool) {
	var zero T
	v, ok := a.inner.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetString reads a string, coercing numeric types the way cell
// type-options need to when a field's stored type changes underneath
// existing data (SPEC_FULL.md §4.6).
func (a *AnyMap) GetString(key string) (string, bool) {
	v, ok := a.inner.Get(key)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// GetInt64 reads an int64, accepting a float64 with no fractional part.
func (a *AnyMap) GetInt64(key string) (int64, bool) {
	v, ok := a.inner.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	}
	return 0, false
}

// GetFloat64 reads a float64, accepting an int64.
func (a *AnyMap) GetFloat64(key string) (float64, bool) {
	v, ok := a.inner.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// GetBool reads a bool.
func (a *AnyMap) GetBool(key string) (bool, bool) {
	return GetAs[bool](a, key)
}

// Insert stores key=value.
func (a *AnyMap) Insert(key string, value crdt.Value) {
	a.inner.Set(key, value)
}

// Remove deletes key.
func (a *AnyMap) Remove(key string) {
	a.inner.Delete(key)
}

// Iter calls fn for every key/value pair. Order is unspecified.
func (a *AnyMap) Iter(fn func(key string, value crdt.Value)) {
	for _, k := range a.inner.Keys() {
		v, ok := a.inner.Get(k)
		if !ok {
			continue
		}
		fn(k, v)
	}
}

// GetOrCreateMap returns the nested AnyMap at key, creating an empty
// one if absent.
func (a *AnyMap) GetOrCreateMap(key string) *AnyMap {
	return New(a.inner.GetOrCreateMap(key))
}

// GetMap returns the nested AnyMap at key, if present.
func (a *AnyMap) GetMap(key string) (*AnyMap, bool) {
	m, ok := a.inner.GetMap(key)
	if !ok {
		return nil, false
	}
	return New(m), true
}

// GetOrCreateArray returns the array at key, creating an empty one if absent.
func (a *AnyMap) GetOrCreateArray(key string) crdt.Array {
	return a.inner.GetOrCreateArray(key)
}

// GetArray returns the array at key, if present.
func (a *AnyMap) GetArray(key string) (crdt.Array, bool) {
	return a.inner.GetArray(key)
}

// StringArray reads an array of strings at key, skipping any element
// that isn't a string (defensive against a corrupted or
// partially-migrated document rather than an expected case).
func (a *AnyMap) StringArray(key string) []string {
	arr, ok := a.inner.GetArray(key)
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for _, v := range arr.Items() {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SetStringArray replaces the array at key with values.
func (a *AnyMap) SetStringArray(key string, values []string) {
	arr := a.inner.GetOrCreateArray(key)
	for arr.Len() > 0 {
		arr.RemoveAt(arr.Len() - 1)
	}
	for _, v := range values {
		arr.Push(v)
	}
}
