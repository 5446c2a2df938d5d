// Package repair holds the consistency checks and fixes that run
// against already-open Folder/Database/Document facades: a one-shot
// pass (TryFixingDatabase) that a caller runs on an opened Database,
// as `collabctl repair run` does; opening a Database does not run it.
// There is also an optional ticker-driven Reconciler that sweeps every
// registered object on a schedule, grounded on the teacher's
// pkg/reconciler loop shape.
package repair
