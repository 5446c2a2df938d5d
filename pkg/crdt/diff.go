package crdt

import "reflect"

// diffMaps walks before and after in lockstep and appends one Event per
// changed key. Array changes are reported as a single Updated event at
// the array's own key rather than per-index, which is enough for
// observers that invalidate caches but doesn't reconstruct a minimal
// move/insert/remove op list the way a real CRDT delta would.
func diffMaps(path []string, before, after *mapNode, out *[]Event) {
	if before == nil {
		before = newMapNode()
	}
	if after == nil {
		after = newMapNode()
	}

	for k, av := range after.data {
		bv, existed := before.data[k]
		if !existed {
			*out = append(*out, Event{Path: append(append([]string{}, path...)), Key: k, Kind: Insert})
			continue
		}
		if changed(bv, av) {
			if bm, ok := bv.(*mapNode); ok {
				if am, ok := av.(*mapNode); ok {
					diffMaps(append(append([]string{}, path...), k), bm, am, out)
					continue
				}
			}
			*out = append(*out, Event{Path: append(append([]string{}, path...)), Key: k, Kind: Updated})
		}
	}
	for k := range before.data {
		if _, stillThere := after.data[k]; !stillThere {
			*out = append(*out, Event{Path: append(append([]string{}, path...)), Key: k, Kind: Deleted})
		}
	}
}

func changed(a, b Value) bool {
	return !reflect.DeepEqual(a, b)
}
