/*
Package types defines the identifiers and enums shared across the
folder, database, and document engines: object ids, ViewLayout,
FieldType, and the millisecond-precision Timestamp the original
AppFlowy-Collab schema encodes on the wire.

Every id type here is a named string so a RowID can't be passed where a
ViewID is expected without an explicit conversion, while still being a
plain string at rest in a crdt.Map (the substrate doesn't know about
named types, only string/int64/float64/bool/[]byte/Map/Array).

# Core types

  - ViewID, RowID, FieldID, DatabaseID, BlockID, WorkspaceID: named
    string identifiers
  - ViewLayout: Document, Grid, Board, Calendar, Chat, Chart, List, Gallery
  - FieldType: the 15 database cell types (RichText through Media)
  - Timestamp: Unix-millisecond time, matching the wire format the
    original Rust schema stores field/row timestamps in
*/
package types
