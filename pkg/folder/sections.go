package folder

import (
	"strconv"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

// SectionName identifies a per-user view list that doesn't own the
// views it references (favorites, trash, recent).
type SectionName string

const (
	SectionFavorite SectionName = "favorite"
	SectionTrash    SectionName = "trash"
	SectionRecent   SectionName = "recent"
)

const sectionsKey = "sections"

func sectionsRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(sectionsKey)
}

func sectionList(root crdt.Map, name SectionName, uid int64) *anymap.AnyMap {
	sections := sectionsRoot(root)
	byName := sections.GetOrCreateMap(string(name))
	return anymap.New(byName.GetOrCreateMap(strconv.FormatInt(uid, 10)))
}

func addToSection(root crdt.Map, name SectionName, uid int64, viewID types.ViewID) {
	m := sectionList(root, name, uid)
	ids := m.StringArray("ids")
	for _, id := range ids {
		if id == string(viewID) {
			return
		}
	}
	m.GetOrCreateArray("ids").Push(string(viewID))
}

func removeFromSection(root crdt.Map, name SectionName, uid int64, viewID types.ViewID) {
	m := sectionList(root, name, uid)
	ids := m.StringArray("ids")
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != string(viewID) {
			out = append(out, id)
		}
	}
	m.SetStringArray("ids", out)
}

func sectionViewIDs(root crdt.Map, name SectionName, uid int64) []types.ViewID {
	ids := sectionList(root, name, uid).StringArray("ids")
	out := make([]types.ViewID, len(ids))
	for i, id := range ids {
		out[i] = types.ViewID(id)
	}
	return out
}

func isInSection(root crdt.Map, name SectionName, uid int64, viewID types.ViewID) bool {
	for _, id := range sectionList(root, name, uid).StringArray("ids") {
		if id == string(viewID) {
			return true
		}
	}
	return false
}
