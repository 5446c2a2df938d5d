package crdt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodedCollab is the result of EncodeCollabV1: a document's full
// state alongside the state vector that produced it, mirroring the
// (state_vector, doc_state) pair PersistenceService stores per
// SPEC_FULL.md §6.
type EncodedCollab struct {
	StateVector []byte
	DocState    []byte
	Version     uint32
}

const encodingVersion uint32 = 1

// snapshot is the wire shape persisted for a document: a plain-value
// rendering of the root map (so json can marshal it without reaching
// into unexported mapNode/arrayNode fields) plus the per-client clock
// map that stands in for a real state vector.
type snapshot struct {
	Root  map[string]any    `json:"root"`
	Clock map[string]uint64 `json:"clock"`
}

func toPlain(v Value) any {
	switch t := v.(type) {
	case *mapNode:
		out := make(map[string]any, len(t.data))
		for k, vv := range t.data {
			out[k] = toPlain(vv)
		}
		return out
	case *arrayNode:
		out := make([]any, len(t.items))
		for i, vv := range t.items {
			out[i] = toPlain(vv)
		}
		return out
	case []byte:
		return map[string]any{"$bytes": base64.StdEncoding.EncodeToString(t)}
	default:
		return v
	}
}

func fromPlain(v any) Value {
	switch t := v.(type) {
	case map[string]any:
		if encoded, ok := t["$bytes"]; ok && len(t) == 1 {
			if s, ok := encoded.(string); ok {
				if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
					return raw
				}
			}
		}
		m := newMapNode()
		for k, vv := range t {
			m.data[k] = fromPlain(vv)
		}
		return m
	case []any:
		a := newArrayNode()
		a.items = make([]Value, len(t))
		for i, vv := range t {
			a.items[i] = fromPlain(vv)
		}
		return a
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func encodeSnapshot(root *mapNode, clock map[string]uint64) ([]byte, error) {
	snap := snapshot{Root: toPlain(root).(map[string]any), Clock: cloneClock(clock)}
	return json.Marshal(snap)
}

func decodeSnapshot(data []byte) (*mapNode, map[string]uint64, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptUpdate, err)
	}
	var root *mapNode
	if snap.Root == nil {
		root = newMapNode()
	} else {
		root = fromPlain(snap.Root).(*mapNode)
	}
	if snap.Clock == nil {
		snap.Clock = make(map[string]uint64)
	}
	return root, snap.Clock, nil
}

func cloneClock(clock map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(clock))
	for k, v := range clock {
		out[k] = v
	}
	return out
}

// stateVectorBytes renders clock deterministically: encoding/json
// sorts map keys when marshaling, so two equal clocks always produce
// byte-identical state vectors.
func stateVectorBytes(clock map[string]uint64) []byte {
	b, _ := json.Marshal(clock)
	return b
}

func decodeStateVector(data []byte) (map[string]uint64, error) {
	if len(data) == 0 {
		return map[string]uint64{}, nil
	}
	var clock map[string]uint64
	if err := json.Unmarshal(data, &clock); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUpdate, err)
	}
	return clock, nil
}

// staleAgainst reports whether incoming is not newer than current for
// every client it names, i.e. applying it would not advance state.
func staleAgainst(current, incoming map[string]uint64) bool {
	for client, clk := range incoming {
		if clk > current[client] {
			return false
		}
	}
	return true
}

func mergeClock(into, from map[string]uint64) {
	for client, clk := range from {
		if clk > into[client] {
			into[client] = clk
		}
	}
}
