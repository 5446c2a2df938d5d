package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ViewID identifies a Folder view (a document, grid, board, ...).
type ViewID string

// DatabaseID identifies a Database (the inline-data object a grid,
// board, or calendar view renders).
type DatabaseID string

// RowID identifies a single row within a Database.
type RowID string

// FieldID identifies a column within a Database.
type FieldID string

// BlockID identifies a node within a Document's block tree.
type BlockID string

// WorkspaceID identifies the top-level container a Folder belongs to.
type WorkspaceID string

// NewViewID mints a UUIDv4-based view id, matching the original
// schema's view id format.
func NewViewID() ViewID { return ViewID(uuid.NewString()) }

// NewDatabaseID mints a UUIDv4-based database id.
func NewDatabaseID() DatabaseID { return DatabaseID(uuid.NewString()) }

// NewRowID mints a UUIDv4-based row id.
func NewRowID() RowID {
	return RowID(uuid.NewString())
}

// NewFieldID mints a six-character field id taken from the first
// segment of a UUIDv4.
func NewFieldID() FieldID {
	return FieldID(shortID()[:6])
}

// NewBlockID mints a UUIDv4-based block id.
func NewBlockID() BlockID { return BlockID(uuid.NewString()) }

func shortID() string {
	full := uuid.NewString()
	return full[:strings.IndexByte(full, '-')]
}

// ViewLayout selects how a View's Database (if any) is rendered.
// Numeric values match the original schema's on-the-wire encoding, so
// a stored int64 can round-trip through ViewLayout without a lookup
// table.
type ViewLayout int64

const (
	ViewLayoutDocument ViewLayout = 0
	ViewLayoutGrid     ViewLayout = 1
	ViewLayoutBoard    ViewLayout = 2
	ViewLayoutCalendar ViewLayout = 3
	ViewLayoutChat     ViewLayout = 4
	ViewLayoutChart    ViewLayout = 5
	ViewLayoutList     ViewLayout = 6
	ViewLayoutGallery  ViewLayout = 7
)

// IsDocument reports whether the layout renders a Document rather than
// a Database view.
func (l ViewLayout) IsDocument() bool {
	return l == ViewLayoutDocument
}

// IsDatabaseView reports whether the layout renders one of Database's
// views (grid/board/calendar/chart/list/gallery).
func (l ViewLayout) IsDatabaseView() bool {
	switch l {
	case ViewLayoutGrid, ViewLayoutBoard, ViewLayoutCalendar, ViewLayoutChart, ViewLayoutList, ViewLayoutGallery:
		return true
	default:
		return false
	}
}

func (l ViewLayout) String() string {
	switch l {
	case ViewLayoutDocument:
		return "document"
	case ViewLayoutGrid:
		return "grid"
	case ViewLayoutBoard:
		return "board"
	case ViewLayoutCalendar:
		return "calendar"
	case ViewLayoutChat:
		return "chat"
	case ViewLayoutChart:
		return "chart"
	case ViewLayoutList:
		return "list"
	case ViewLayoutGallery:
		return "gallery"
	default:
		return "unknown"
	}
}

// FieldType enumerates a Database column's cell type. Values match the
// original schema's encoding exactly, including the fact that there is
// no gap between RichText and Media — the gap callers may be expecting
// at id 3 belongs to the Number *format* enum (see typeoption.NumberFormat),
// not FieldType.
type FieldType int64

const (
	FieldTypeRichText       FieldType = 0
	FieldTypeNumber         FieldType = 1
	FieldTypeDateTime       FieldType = 2
	FieldTypeSingleSelect   FieldType = 3
	FieldTypeMultiSelect    FieldType = 4
	FieldTypeCheckbox       FieldType = 5
	FieldTypeURL            FieldType = 6
	FieldTypeChecklist      FieldType = 7
	FieldTypeLastEditedTime FieldType = 8
	FieldTypeCreatedTime    FieldType = 9
	FieldTypeRelation       FieldType = 10
	FieldTypeSummary        FieldType = 11
	FieldTypeTranslate      FieldType = 12
	FieldTypeTime           FieldType = 13
	FieldTypeMedia          FieldType = 14
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeRichText:
		return "rich_text"
	case FieldTypeNumber:
		return "number"
	case FieldTypeDateTime:
		return "date_time"
	case FieldTypeSingleSelect:
		return "single_select"
	case FieldTypeMultiSelect:
		return "multi_select"
	case FieldTypeCheckbox:
		return "checkbox"
	case FieldTypeURL:
		return "url"
	case FieldTypeChecklist:
		return "checklist"
	case FieldTypeLastEditedTime:
		return "last_edited_time"
	case FieldTypeCreatedTime:
		return "created_time"
	case FieldTypeRelation:
		return "relation"
	case FieldTypeSummary:
		return "summary"
	case FieldTypeTranslate:
		return "translate"
	case FieldTypeTime:
		return "time"
	case FieldTypeMedia:
		return "media"
	default:
		return "unknown"
	}
}

// IsSelectType reports whether t stores its options in a select-option
// list (single or multi select), which share validation and rendering
// logic in the database engine.
func (t FieldType) IsSelectType() bool {
	return t == FieldTypeSingleSelect || t == FieldTypeMultiSelect
}

// Timestamp is Unix-millisecond time, the precision the original
// schema stores row/field created_at/updated_at fields at.
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// Time converts back to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// TimestampFromTime converts a time.Time to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}
