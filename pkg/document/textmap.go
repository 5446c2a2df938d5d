package document

import (
	"encoding/json"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
)

// MentionType classifies a DeltaAttributes.Mention.
type MentionType string

const (
	MentionPerson       MentionType = "person"
	MentionPage         MentionType = "page"
	MentionChildPage    MentionType = "childPage"
	MentionDate         MentionType = "date"
	MentionReminder     MentionType = "reminder" // alias for date
	MentionExternalLink MentionType = "externalLink"
)

// Mention is the payload of a single-character "$" delta insert that
// renders as an inline reference.
type Mention struct {
	Type        MentionType `json:"type"`
	PageID      string      `json:"page_id,omitempty"`
	BlockID     string      `json:"block_id,omitempty"`
	RowID       string      `json:"row_id,omitempty"`
	Date        string      `json:"date,omitempty"`
	ReminderID  string      `json:"reminder_id,omitempty"`
	IncludeTime bool        `json:"include_time,omitempty"`
	URL         string      `json:"url,omitempty"`
}

// DeltaAttributes are the optional rich-text attributes on one DeltaOp.
type DeltaAttributes struct {
	Bold          bool     `json:"bold,omitempty"`
	Italic        bool     `json:"italic,omitempty"`
	Underline     bool     `json:"underline,omitempty"`
	Strikethrough bool     `json:"strikethrough,omitempty"`
	Href          string   `json:"href,omitempty"`
	Code          bool     `json:"code,omitempty"`
	Formula       string   `json:"formula,omitempty"`
	Mention       *Mention `json:"mention,omitempty"`
}

// DeltaOp is one quill-style delta operation. A Mention is encoded as
// a single-character Insert ("$") carrying a Mention attribute.
type DeltaOp struct {
	Insert     string           `json:"insert"`
	Attributes *DeltaAttributes `json:"attributes,omitempty"`
}

const textMapKey = "text_map"

func textMapRoot(meta crdt.Map) crdt.Map {
	return meta.GetOrCreateMap(textMapKey)
}

// GetText decodes the delta-ops list stored under externalID.
func GetText(meta crdt.Map, externalID string) ([]DeltaOp, bool) {
	raw, ok := anymap.New(textMapRoot(meta)).GetString(externalID)
	if !ok || raw == "" {
		return nil, false
	}
	var ops []DeltaOp
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return nil, false
	}
	return ops, true
}

// SetText encodes ops as JSON and stores it under externalID.
func SetText(meta crdt.Map, externalID string, ops []DeltaOp) error {
	raw, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	anymap.New(textMapRoot(meta)).Insert(externalID, string(raw))
	return nil
}

// DeleteText removes externalID's stored delta.
func DeleteText(meta crdt.Map, externalID string) {
	textMapRoot(meta).Delete(externalID)
}

func allText(meta crdt.Map) map[string]string {
	tm := textMapRoot(meta)
	out := make(map[string]string, tm.Len())
	for _, k := range tm.Keys() {
		if v, ok := anymap.New(tm).GetString(k); ok {
			out[k] = v
		}
	}
	return out
}
