package typeoption

import (
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

// SelectOption is one entry in a Single/MultiSelect field's option
// list.
type SelectOption struct {
	ID    string
	Name  string
	Color string
}

// SelectTypeOption is the type_option_data for Single/MultiSelect
// fields. Cell data is a comma-separated list of option ids.
type SelectTypeOption struct {
	ft      types.FieldType
	Options []SelectOption
}

func NewSelect(ft types.FieldType) *SelectTypeOption {
	return &SelectTypeOption{ft: ft}
}

func (o *SelectTypeOption) FieldType() types.FieldType { return o.ft }

func (o *SelectTypeOption) ReadFrom(m *anymap.AnyMap) {
	arr, ok := m.GetArray("options")
	if !ok {
		return
	}
	o.Options = o.Options[:0]
	for _, item := range arr.Items() {
		sub, ok := anymap.ItemFields(item)
		if !ok {
			continue
		}
		opt := SelectOption{}
		opt.ID, _ = anymap.FieldString(sub, "id")
		opt.Name, _ = anymap.FieldString(sub, "name")
		opt.Color, _ = anymap.FieldString(sub, "color")
		o.Options = append(o.Options, opt)
	}
}

func (o *SelectTypeOption) WriteTo(m *anymap.AnyMap) {
	arr := m.GetOrCreateArray("options")
	for arr.Len() > 0 {
		arr.RemoveAt(arr.Len() - 1)
	}
	for _, opt := range o.Options {
		arr.Push(map[string]crdt.Value{"id": opt.ID, "name": opt.Name, "color": opt.Color})
	}
}

// AddOption appends a new option with a freshly minted id and returns it.
func (o *SelectTypeOption) AddOption(name, color string) SelectOption {
	opt := SelectOption{ID: NewOptionID(), Name: name, Color: color}
	o.Options = append(o.Options, opt)
	return opt
}

func (o *SelectTypeOption) optionByID(id string) (SelectOption, bool) {
	for _, opt := range o.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return SelectOption{}, false
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (o *SelectTypeOption) StringifyCell(raw string) string {
	ids := splitIDs(raw)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if opt, ok := o.optionByID(id); ok {
			names = append(names, opt.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (o *SelectTypeOption) JSONCell(raw string) any {
	ids := splitIDs(raw)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if opt, ok := o.optionByID(id); ok {
			out = append(out, opt.Name)
		}
	}
	return out
}

func (o *SelectTypeOption) NumericCell(raw string) (float64, bool) {
	return float64(len(splitIDs(raw))), true
}

// ConvertRawCellData resolves option names (creating none; callers add
// options explicitly via AddOption) to their ids, dropping unknown names.
func (o *SelectTypeOption) ConvertRawCellData(text string) string {
	names := strings.Split(text, ",")
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		for _, opt := range o.Options {
			if opt.Name == name {
				ids = append(ids, opt.ID)
				break
			}
		}
	}
	if o.ft == types.FieldTypeSingleSelect && len(ids) > 1 {
		ids = ids[:1]
	}
	return strings.Join(ids, ",")
}

func (o *SelectTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case string:
		return o.ConvertRawCellData(v)
	case []string:
		return o.ConvertRawCellData(strings.Join(v, ","))
	default:
		return ""
	}
}
