package typeoption

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// DateFormat selects the display layout for a date's calendar portion.
type DateFormat int64

const (
	DateFormatLocal DateFormat = iota
	DateFormatUS
	DateFormatISO
	DateFormatFriendly // default
	DateFormatDayMonthYear
	DateFormatFriendlyFull
)

func (f DateFormat) layout() string {
	switch f {
	case DateFormatLocal:
		return "01/02/2006"
	case DateFormatUS:
		return "2006/01/02"
	case DateFormatISO:
		return "2006-01-02"
	case DateFormatDayMonthYear:
		return "02/01/2006"
	case DateFormatFriendlyFull:
		return "January 2, 2006"
	case DateFormatFriendly:
		fallthrough
	default:
		return "Jan 02, 2006"
	}
}

// TimeFormat selects the display layout for a date's clock portion.
type TimeFormat int64

const (
	TimeFormatTwelveHour TimeFormat = iota
	TimeFormatTwentyFourHour
)

func (f TimeFormat) layout() string {
	if f == TimeFormatTwelveHour {
		return "03:04 PM"
	}
	return "15:04"
}

// rangeSeparator joins a start/end pair when IsRange is set.
const rangeSeparator = " → "

// DateTimeTypeOption is the type_option_data for a DateTime field.
type DateTimeTypeOption struct {
	DateFormat DateFormat
	TimeFormat TimeFormat
	TimezoneID string
	IncludeTimeDefault bool
}

func NewDateTime() *DateTimeTypeOption {
	return &DateTimeTypeOption{DateFormat: DateFormatFriendly, TimeFormat: TimeFormatTwentyFourHour}
}

func (o *DateTimeTypeOption) FieldType() types.FieldType { return types.FieldTypeDateTime }

func (o *DateTimeTypeOption) ReadFrom(m *anymap.AnyMap) {
	if v, ok := m.GetInt64("date_format"); ok {
		o.DateFormat = DateFormat(v)
	}
	if v, ok := m.GetInt64("time_format"); ok {
		o.TimeFormat = TimeFormat(v)
	}
	if v, ok := m.GetString("timezone_id"); ok {
		o.TimezoneID = v
	}
	if v, ok := m.GetBool("include_time"); ok {
		o.IncludeTimeDefault = v
	}
}

func (o *DateTimeTypeOption) WriteTo(m *anymap.AnyMap) {
	m.Insert("date_format", int64(o.DateFormat))
	m.Insert("time_format", int64(o.TimeFormat))
	m.Insert("timezone_id", o.TimezoneID)
	m.Insert("include_time", o.IncludeTimeDefault)
}

// dateTimeCell is the decoded form of a DateTime/LastEditedTime/
// CreatedTime cell's raw JSON payload.
type dateTimeCell struct {
	Timestamp     int64  `json:"timestamp"`
	EndTimestamp  *int64 `json:"end_timestamp,omitempty"`
	IncludeTime   bool   `json:"include_time"`
	IsRange       bool   `json:"is_range"`
	ReminderID    string `json:"reminder_id,omitempty"`
}

func decodeDateTimeCell(raw string) (dateTimeCell, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dateTimeCell{}, false
	}
	// A bare integer is accepted as a plain Unix-millis timestamp, the
	// form LastEditedTime/CreatedTime store since they have no other
	// settings.
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return dateTimeCell{Timestamp: ms}, true
	}
	var c dateTimeCell
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return dateTimeCell{}, false
	}
	return c, true
}

func (o *DateTimeTypeOption) location() *time.Location {
	if o.TimezoneID == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(o.TimezoneID)
	if err != nil {
		return time.Local
	}
	return loc
}

func (o *DateTimeTypeOption) formatOne(ms int64, includeTime bool) string {
	t := time.UnixMilli(ms).In(o.location())
	s := t.Format(o.DateFormat.layout())
	if includeTime {
		s += " " + t.Format(o.TimeFormat.layout())
	}
	return s
}

func (o *DateTimeTypeOption) StringifyCell(raw string) string {
	c, ok := decodeDateTimeCell(raw)
	if !ok {
		return ""
	}
	out := o.formatOne(c.Timestamp, c.IncludeTime)
	if c.IsRange && c.EndTimestamp != nil {
		out += rangeSeparator + o.formatOne(*c.EndTimestamp, c.IncludeTime)
	}
	return out
}

func (o *DateTimeTypeOption) JSONCell(raw string) any {
	return o.StringifyCell(raw)
}

func (o *DateTimeTypeOption) NumericCell(raw string) (float64, bool) {
	c, ok := decodeDateTimeCell(raw)
	if !ok {
		return 0, false
	}
	return float64(c.Timestamp), true
}

func (o *DateTimeTypeOption) ConvertRawCellData(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return strconv.FormatInt(ms, 10)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, text); err == nil {
			return strconv.FormatInt(t.UnixMilli(), 10)
		}
	}
	return ""
}

func (o *DateTimeTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case string:
		return o.ConvertRawCellData(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
