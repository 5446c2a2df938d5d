package typeoption

import (
	"strconv"
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// CheckboxTypeOption is the type_option_data for a Checkbox field. It
// carries no settings of its own; cell data is always "Yes" or "No".
type CheckboxTypeOption struct{}

func NewCheckbox() *CheckboxTypeOption { return &CheckboxTypeOption{} }

func (o *CheckboxTypeOption) FieldType() types.FieldType { return types.FieldTypeCheckbox }
func (o *CheckboxTypeOption) ReadFrom(*anymap.AnyMap)    {}
func (o *CheckboxTypeOption) WriteTo(*anymap.AnyMap)     {}

func parseCheckbox(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		return true, true
	case "no", "false", "0", "":
		return false, true
	default:
		return false, false
	}
}

func (o *CheckboxTypeOption) ConvertRawCellData(text string) string {
	v, ok := parseCheckbox(text)
	if !ok {
		return "No"
	}
	if v {
		return "Yes"
	}
	return "No"
}

func (o *CheckboxTypeOption) StringifyCell(raw string) string {
	return o.ConvertRawCellData(raw)
}

func (o *CheckboxTypeOption) JSONCell(raw string) any {
	v, _ := parseCheckbox(raw)
	return v
}

func (o *CheckboxTypeOption) NumericCell(raw string) (float64, bool) {
	v, ok := parseCheckbox(raw)
	if !ok || !v {
		return 0, ok
	}
	return 1, true
}

func (o *CheckboxTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case string:
		return o.ConvertRawCellData(v)
	case float64:
		return o.ConvertRawCellData(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return "No"
	}
}
