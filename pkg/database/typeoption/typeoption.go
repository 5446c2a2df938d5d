// Package typeoption implements the per-FieldType cell codecs: the
// reversible TypeOptionData<->AnyMap conversion, canonical cell
// stringification, and the JSON import/export readers and writers
// described for FieldMap's type_option_data layout. Each of the
// fifteen built-in FieldTypes maps to a TypeOption implementation
// (RichText/URL/Summary/Translate/Time/Media share PlainText,
// LastEditedTime/CreatedTime share AutoTimestamp, SingleSelect/
// MultiSelect share Select); Field never interprets a cell's raw string itself, it always goes
// through the TypeOption for its own TypeID.
package typeoption

import (
	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/types"
)

// TypeOption codecs the type_option_data sub-map for one FieldType and
// interprets that FieldType's raw cell string.
type TypeOption interface {
	// FieldType identifies which column type this TypeOption serves.
	FieldType() types.FieldType

	// ReadFrom loads settings (format, options, symbol, ...) from the
	// field's type_option_data map for this FieldType.
	ReadFrom(m *anymap.AnyMap)

	// WriteTo persists settings back to the type_option_data map.
	WriteTo(m *anymap.AnyMap)

	// StringifyCell renders raw (a cell's stored data for this field)
	// as its canonical display string.
	StringifyCell(raw string) string

	// JSONCell renders raw as the value an export would embed for this
	// cell (import/export CellReader.JSONCell).
	JSONCell(raw string) any

	// NumericCell extracts a numeric interpretation of raw, when this
	// FieldType has one (sort-by-number, aggregate calculations).
	NumericCell(raw string) (float64, bool)

	// ConvertRawCellData normalizes free-form input text (e.g. pasted
	// from a spreadsheet) into this FieldType's canonical raw cell
	// string.
	ConvertRawCellData(text string) string

	// ConvertJSONToCell is the reverse of JSONCell, used on import.
	ConvertJSONToCell(json any) string
}

// New constructs the zero-value TypeOption for ft (the settings a
// freshly created Field of that type starts with).
func New(ft types.FieldType) TypeOption {
	switch ft {
	case types.FieldTypeNumber:
		return NewNumber()
	case types.FieldTypeDateTime:
		return NewDateTime()
	case types.FieldTypeSingleSelect:
		return NewSelect(types.FieldTypeSingleSelect)
	case types.FieldTypeMultiSelect:
		return NewSelect(types.FieldTypeMultiSelect)
	case types.FieldTypeCheckbox:
		return NewCheckbox()
	case types.FieldTypeChecklist:
		return NewChecklist()
	case types.FieldTypeLastEditedTime:
		return NewAutoTimestamp(types.FieldTypeLastEditedTime)
	case types.FieldTypeCreatedTime:
		return NewAutoTimestamp(types.FieldTypeCreatedTime)
	case types.FieldTypeRelation:
		return NewRelation()
	case types.FieldTypeRichText, types.FieldTypeURL, types.FieldTypeSummary,
		types.FieldTypeTranslate, types.FieldTypeTime, types.FieldTypeMedia:
		return NewPlainText(ft)
	default:
		// Unknown ids fall back to RichText (SPEC_FULL.md §6).
		log.WithComponent("typeoption").Error().Int("field_type", int(ft)).Msg("unknown field type, falling back to RichText")
		return NewPlainText(types.FieldTypeRichText)
	}
}

// Decode constructs ft's TypeOption and loads it from data.
func Decode(ft types.FieldType, data *anymap.AnyMap) TypeOption {
	opt := New(ft)
	opt.ReadFrom(data)
	return opt
}
