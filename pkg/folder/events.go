package folder

// ChangeKind classifies a ViewChange.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Updated
	Deleted
)

// ViewChange is published whenever a view is inserted, updated, or
// deleted. Deleted events carry the view as it was read inside the
// deleting transaction, just before its entry was removed.
type ViewChange struct {
	Kind ChangeKind
	View View
}
