// Package database implements the relational layer of the
// collaborative document model: Field/FieldMap (typed columns backed
// by typeoption codecs), DatabaseRow (one CRDT sub-document per row),
// RowBlock (the cached, async-fetching row accessor views read
// through), DatabaseViewMap (per-view row/field ordering, filters,
// sorts, groups) and the Database facade that ties them together.
// WorkspaceDatabase is the flat per-workspace index of which databases
// exist and which views render them.
package database
