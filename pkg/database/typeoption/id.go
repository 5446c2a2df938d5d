package typeoption

import (
	"strings"

	"github.com/google/uuid"
)

// newShortID mints a short, collision-resistant id for select options,
// filters, sorts and groups. The original schema mints these with a
// 4-6 character nanoid; this module has no nanoid dependency anywhere
// in the example corpus it was built from, so it derives an
// equally-short id from a UUIDv4 instead (same approach as
// types.NewFieldID).
func newShortID(n int) string {
	full := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(full) {
		n = len(full)
	}
	return full[:n]
}

// NewOptionID mints a select-option id.
func NewOptionID() string { return newShortID(4) }

// NewFilterID mints a filter id.
func NewFilterID() string { return newShortID(6) }

// NewGroupID mints a group id.
func NewGroupID() string { return "g:" + newShortID(6) }

// NewSortID mints a sort id.
func NewSortID() string { return "s:" + newShortID(6) }

// NewDatabaseViewID mints a database view id.
func NewDatabaseViewID() string { return "v:" + newShortID(6) }
