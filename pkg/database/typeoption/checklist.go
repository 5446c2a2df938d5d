package typeoption

import (
	"fmt"
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

// ChecklistOption is one task in a Checklist field's option list.
type ChecklistOption struct {
	ID   string
	Name string
}

// ChecklistTypeOption is the type_option_data for a Checklist field.
// Cell data is a comma-separated list of the option ids that are
// complete.
type ChecklistTypeOption struct {
	Options []ChecklistOption
}

func NewChecklist() *ChecklistTypeOption { return &ChecklistTypeOption{} }

func (o *ChecklistTypeOption) FieldType() types.FieldType { return types.FieldTypeChecklist }

func (o *ChecklistTypeOption) ReadFrom(m *anymap.AnyMap) {
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
		opt := ChecklistOption{}
		opt.ID, _ = anymap.FieldString(sub, "id")
		opt.Name, _ = anymap.FieldString(sub, "name")
		o.Options = append(o.Options, opt)
	}
}

func (o *ChecklistTypeOption) WriteTo(m *anymap.AnyMap) {
	arr := m.GetOrCreateArray("options")
	for arr.Len() > 0 {
		arr.RemoveAt(arr.Len() - 1)
	}
	for _, opt := range o.Options {
		arr.Push(map[string]crdt.Value{"id": opt.ID, "name": opt.Name})
	}
}

// AddOption appends a new checklist task with a freshly minted id.
func (o *ChecklistTypeOption) AddOption(name string) ChecklistOption {
	opt := ChecklistOption{ID: NewOptionID(), Name: name}
	o.Options = append(o.Options, opt)
	return opt
}

func (o *ChecklistTypeOption) StringifyCell(raw string) string {
	done := len(splitIDs(raw))
	return fmt.Sprintf("%d/%d", done, len(o.Options))
}

func (o *ChecklistTypeOption) JSONCell(raw string) any {
	completed := map[string]bool{}
	for _, id := range splitIDs(raw) {
		completed[id] = true
	}
	out := make([]map[string]any, 0, len(o.Options))
	for _, opt := range o.Options {
		out = append(out, map[string]any{"id": opt.ID, "name": opt.Name, "completed": completed[opt.ID]})
	}
	return out
}

func (o *ChecklistTypeOption) NumericCell(raw string) (float64, bool) {
	if len(o.Options) == 0 {
		return 0, false
	}
	return float64(len(splitIDs(raw))) / float64(len(o.Options)), true
}

func (o *ChecklistTypeOption) ConvertRawCellData(text string) string {
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
	return strings.Join(ids, ",")
}

func (o *ChecklistTypeOption) ConvertJSONToCell(json any) string {
	if s, ok := json.(string); ok {
		return o.ConvertRawCellData(s)
	}
	return ""
}
