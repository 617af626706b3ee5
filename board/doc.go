// Package board provides named task groupings and user-defined status
// labels.
//
// Boards and labels are owner-scoped and soft-deletable. Soft deletion of a
// board does not cascade to its tasks: tasks keep their board reference and
// remain reachable through the task listing.
package board
