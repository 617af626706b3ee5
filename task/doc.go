// Package task defines the Task entity, its canonical status enumeration,
// the immutable status History record, and the persistence contract both
// share.
//
// A [Task] always belongs to exactly one owner; only that owner's requests
// may read or mutate it. Tasks are never hard-deleted — "deletion" sets the
// soft-delete flag and excludes the row from every default query.
//
// A [History] record is created as a side effect of each save in which the
// persisted status changed. Writes go through the engine package, which owns
// the read-compare-write-audit sequence; this package only defines the data
// and the [Store] contract.
package task
