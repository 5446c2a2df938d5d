package typeoption

import (
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// RelationTypeOption is the type_option_data for a Relation field.
// Cell data is a comma-separated list of foreign row ids in
// DatabaseID.
type RelationTypeOption struct {
	DatabaseID types.DatabaseID
}

func NewRelation() *RelationTypeOption { return &RelationTypeOption{} }

func (o *RelationTypeOption) FieldType() types.FieldType { return types.FieldTypeRelation }

func (o *RelationTypeOption) ReadFrom(m *anymap.AnyMap) {
	if v, ok := m.GetString("database_id"); ok {
		o.DatabaseID = types.DatabaseID(v)
	}
}

func (o *RelationTypeOption) WriteTo(m *anymap.AnyMap) {
	m.Insert("database_id", string(o.DatabaseID))
}

func (o *RelationTypeOption) StringifyCell(raw string) string {
	return strings.Join(splitIDs(raw), ", ")
}

func (o *RelationTypeOption) JSONCell(raw string) any {
	return splitIDs(raw)
}

func (o *RelationTypeOption) NumericCell(raw string) (float64, bool) {
	return float64(len(splitIDs(raw))), true
}

func (o *RelationTypeOption) ConvertRawCellData(text string) string {
	return strings.Join(splitIDs(text), ",")
}

func (o *RelationTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case string:
		return o.ConvertRawCellData(v)
	case []string:
		return strings.Join(v, ",")
	default:
		return ""
	}
}
