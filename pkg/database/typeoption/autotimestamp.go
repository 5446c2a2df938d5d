package typeoption

import (
	"strconv"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// AutoTimestampTypeOption is the type_option_data for LastEditedTime
// and CreatedTime fields. These fields are read-only and derived: the
// cell's raw value is always the row's own created_at/modified_at
// timestamp written by DatabaseRow, never user input.
type AutoTimestampTypeOption struct {
	ft         types.FieldType
	DateFormat DateFormat
	TimeFormat TimeFormat
}

// IsAutoUpdate is always true for this TypeOption, matching
// SPEC_FULL.md §4.6: these fields never accept a write through
// ConvertJSONToCell/ConvertRawCellData.
const IsAutoUpdate = true

func NewAutoTimestamp(ft types.FieldType) *AutoTimestampTypeOption {
	return &AutoTimestampTypeOption{ft: ft, DateFormat: DateFormatFriendly, TimeFormat: TimeFormatTwentyFourHour}
}

func (o *AutoTimestampTypeOption) FieldType() types.FieldType { return o.ft }

func (o *AutoTimestampTypeOption) ReadFrom(m *anymap.AnyMap) {
	if v, ok := m.GetInt64("date_format"); ok {
		o.DateFormat = DateFormat(v)
	}
	if v, ok := m.GetInt64("time_format"); ok {
		o.TimeFormat = TimeFormat(v)
	}
}

func (o *AutoTimestampTypeOption) WriteTo(m *anymap.AnyMap) {
	m.Insert("date_format", int64(o.DateFormat))
	m.Insert("time_format", int64(o.TimeFormat))
}

func (o *AutoTimestampTypeOption) StringifyCell(raw string) string {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ""
	}
	dt := &DateTimeTypeOption{DateFormat: o.DateFormat, TimeFormat: o.TimeFormat}
	return dt.formatOne(ms, true)
}

func (o *AutoTimestampTypeOption) JSONCell(raw string) any { return o.StringifyCell(raw) }

func (o *AutoTimestampTypeOption) NumericCell(raw string) (float64, bool) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(ms), true
}

// ConvertRawCellData is a no-op: these cells are never user-editable.
func (o *AutoTimestampTypeOption) ConvertRawCellData(string) string { return "" }

// ConvertJSONToCell is a no-op for the same reason.
func (o *AutoTimestampTypeOption) ConvertJSONToCell(any) string { return "" }
