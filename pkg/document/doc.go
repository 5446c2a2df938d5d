// Package document implements the block-tree document model: a map of
// Blocks, a parent-to-children index (meta.children_map), and a map of
// rich-text deltas (meta.text_map). It is the collabkit analogue of
// the original AppFlowy-Collab "document" crate, built on this
// project's own crdt/anymap/parentchild substrate packages instead of
// yrs.
package document
