package folder

import (
	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// View is one node in the folder tree.
type View struct {
	ID             types.ViewID
	Name           string
	ParentID       types.ViewID
	Layout         types.ViewLayout
	CreatedAt      types.Timestamp
	LastEditedTime types.Timestamp
	CreatedBy      *int64
	LastEditedBy   *int64
	Icon           string
	IsLocked       bool
	Extra          string
	IsFavorite     bool // computed on read, never stored
}

const (
	keyViewID        = "id"
	keyViewName      = "name"
	keyViewParent    = "bid"
	keyViewLayout    = "layout"
	keyViewCreatedAt = "created_at"
	keyViewEditedAt  = "last_edited_time"
	keyViewCreatedBy = "created_by"
	keyViewEditedBy  = "last_edited_by"
	keyViewIcon      = "icon"
	keyViewLocked    = "is_locked"
	keyViewExtra     = "extra"
)

func viewFromMap(m *anymap.AnyMap) View {
	v := View{}
	if id, ok := m.GetString(keyViewID); ok {
		v.ID = types.ViewID(id)
	}
	if name, ok := m.GetString(keyViewName); ok {
		v.Name = name
	}
	if parent, ok := m.GetString(keyViewParent); ok {
		v.ParentID = types.ViewID(parent)
	}
	if layout, ok := m.GetInt64(keyViewLayout); ok {
		v.Layout = types.ViewLayout(layout)
	}
	if createdAt, ok := m.GetInt64(keyViewCreatedAt); ok {
		v.CreatedAt = types.Timestamp(createdAt)
	}
	if editedAt, ok := m.GetInt64(keyViewEditedAt); ok {
		v.LastEditedTime = types.Timestamp(editedAt)
	}
	if createdBy, ok := m.GetInt64(keyViewCreatedBy); ok {
		v.CreatedBy = &createdBy
	}
	if editedBy, ok := m.GetInt64(keyViewEditedBy); ok {
		v.LastEditedBy = &editedBy
	}
	if icon, ok := m.GetString(keyViewIcon); ok {
		v.Icon = icon
	}
	if locked, ok := m.GetBool(keyViewLocked); ok {
		v.IsLocked = locked
	}
	if extra, ok := m.GetString(keyViewExtra); ok {
		v.Extra = extra
	}
	return v
}

func writeViewToMap(m *anymap.AnyMap, v View) {
	m.Insert(keyViewID, string(v.ID))
	m.Insert(keyViewName, v.Name)
	m.Insert(keyViewParent, string(v.ParentID))
	m.Insert(keyViewLayout, int64(v.Layout))
	m.Insert(keyViewCreatedAt, int64(v.CreatedAt))
	m.Insert(keyViewEditedAt, int64(v.LastEditedTime))
	if v.CreatedBy != nil {
		m.Insert(keyViewCreatedBy, *v.CreatedBy)
	}
	if v.LastEditedBy != nil {
		m.Insert(keyViewEditedBy, *v.LastEditedBy)
	}
	m.Insert(keyViewIcon, v.Icon)
	m.Insert(keyViewLocked, v.IsLocked)
	m.Insert(keyViewExtra, v.Extra)
}
