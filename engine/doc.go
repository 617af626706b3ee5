// Package engine implements the task mutation engine: the single write
// path through which tasks, boards, and status labels change.
//
// Every task save follows the same sequence. The previously persisted row
// is read first, the incoming change is validated, the completion flag is
// derived from the status, a history record is built when the persisted
// status changed, priority collisions within the (owner, status) group are
// resolved into a bounded chain of sibling shifts, and finally the task,
// its shifted siblings, and the history record are handed to the store in
// one atomic save.
//
// The engine never hard-deletes. Removal sets a soft-delete flag and the
// stores exclude flagged rows from every default read.
package engine
