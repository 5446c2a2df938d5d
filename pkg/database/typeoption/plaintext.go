package typeoption

import (
	"strconv"
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// PlainTextTypeOption backs the FieldTypes that store their cell data
// as an opaque string with no extra structure: RichText, URL, Summary
// (an AI-generated digest of the row), Translate (an AI-translated
// variant of another field), Time (a duration string), and Media (a
// comma-separated list of file ids). They differ only in which
// FieldType they report and are otherwise identical codecs.
type PlainTextTypeOption struct {
	ft types.FieldType
}

func NewPlainText(ft types.FieldType) *PlainTextTypeOption {
	return &PlainTextTypeOption{ft: ft}
}

func (o *PlainTextTypeOption) FieldType() types.FieldType { return o.ft }
func (o *PlainTextTypeOption) ReadFrom(*anymap.AnyMap)    {}
func (o *PlainTextTypeOption) WriteTo(*anymap.AnyMap)     {}

func (o *PlainTextTypeOption) StringifyCell(raw string) string { return raw }
func (o *PlainTextTypeOption) JSONCell(raw string) any         { return raw }

func (o *PlainTextTypeOption) NumericCell(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (o *PlainTextTypeOption) ConvertRawCellData(text string) string { return text }

func (o *PlainTextTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
