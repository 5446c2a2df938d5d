// Package parentchild implements the ordered parent-to-children index
// the tree-shaped engines use to track hierarchy: Folder's view tree
// and Document's block tree both need "get this parent's ordered
// children, move one, drop one" with the same semantics, so it lives
// once here instead of twice. Database's row/field ordering keeps its
// own arrays in pkg/database/view.go and does not use this package.
package parentchild

import "github.com/cuemby/collabkit/pkg/crdt"

// Relations manages an array-of-child-id-per-parent index stored under
// a single crdt.Map, one array per parent id.
type Relations struct {
	root crdt.Map
}

// New wraps the map that stores the parent->children index.
func New(root crdt.Map) *Relations {
	return &Relations{root: root}
}

// GetOrCreateChildren returns the ordered child-id array for parentID,
// creating an empty one if parentID has never had children recorded.
func (r *Relations) GetOrCreateChildren(parentID string) crdt.Array {
	return r.root.GetOrCreateArray(parentID)
}

// GetChildren returns the ordered child ids for parentID, or nil if
// parentID has no recorded children.
func (r *Relations) GetChildren(parentID string) []string {
	arr, ok := r.root.GetArray(parentID)
	if !ok {
		return nil
	}
	return toStrings(arr)
}

// AddChild appends childID to parentID's children. A childID already
// present under parentID is left where it is.
func (r *Relations) AddChild(parentID, childID string) {
	arr := r.GetOrCreateChildren(parentID)
	if indexOf(arr, childID) >= 0 {
		return
	}
	arr.Push(childID)
}

// InsertChildAt inserts childID at index i within parentID's children.
// A childID already present under parentID is left where it is.
func (r *Relations) InsertChildAt(parentID, childID string, i int) {
	arr := r.GetOrCreateChildren(parentID)
	if indexOf(arr, childID) >= 0 {
		return
	}
	arr.InsertAt(i, childID)
}

// RemoveChild removes the first occurrence of childID from parentID's
// children. Reports whether it was found.
func (r *Relations) RemoveChild(parentID, childID string) bool {
	arr, ok := r.root.GetArray(parentID)
	if !ok {
		return false
	}
	idx := indexOf(arr, childID)
	if idx < 0 {
		return false
	}
	arr.RemoveAt(idx)
	return true
}

// MoveChild relocates childID within parentID's children so it ends up
// at index to. Reports whether childID was found.
func (r *Relations) MoveChild(parentID, childID string, to int) bool {
	arr, ok := r.root.GetArray(parentID)
	if !ok {
		return false
	}
	from := indexOf(arr, childID)
	if from < 0 {
		return false
	}
	arr.Move(from, to)
	return true
}

// Dissociate removes childID from oldParentID's children without
// adding it anywhere, used when a view/row/block is being deleted
// outright rather than relocated.
func (r *Relations) Dissociate(oldParentID, childID string) bool {
	return r.RemoveChild(oldParentID, childID)
}

// Associate moves childID from oldParentID to newParentID, appending it
// unless at is non-negative, in which case it is inserted at that
// index. Safe to call with oldParentID == "" for a child that has no
// prior parent.
func (r *Relations) Associate(oldParentID, newParentID, childID string, at int) {
	if oldParentID != "" {
		r.RemoveChild(oldParentID, childID)
	}
	if at < 0 {
		r.AddChild(newParentID, childID)
		return
	}
	r.InsertChildAt(newParentID, childID, at)
}

func indexOf(arr crdt.Array, id string) int {
	for i, v := range arr.Items() {
		if s, ok := v.(string); ok && s == id {
			return i
		}
	}
	return -1
}

func toStrings(arr crdt.Array) []string {
	items := arr.Items()
	out := make([]string, 0, len(items))
	for _, v := range items {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
