// Package storage persists download artifacts: the on-disk asset layout,
// the append-only manifest log, and the sqlite record store.
//
// The three writers are independent and best-effort from the pipeline's
// point of view: asset files are written atomically, manifest lines are
// whole-record appends, and store rows are keyed upserts, so concurrent
// item jobs cannot corrupt each other's records.
package storage
