// Package folder implements the workspace view hierarchy: a tree of
// Views (documents, grids, boards, ...) per user, plus per-user
// sections (favorites, trash) that reference views without owning
// them. It is the collabkit analogue of the original AppFlowy-Collab
// "folder" crate, built on this project's own crdt/anymap/parentchild
// substrate packages instead of yrs.
package folder
