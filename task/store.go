package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/rabilrbl/taskboard/id"
)

// ListOpts filters and paginates task listings. The owner scope and the
// soft-delete exclusion are not options: every read carries them.
type ListOpts struct {
	// Status restricts the listing to one canonical status. Empty means
	// all statuses.
	Status Status

	// BoardID restricts the listing to one board. Nil means all boards.
	BoardID id.BoardID

	// Search is a case-insensitive title substring filter.
	Search string

	// Limit caps the number of results; zero means no cap.
	Limit int

	// Offset skips results for pagination.
	Offset int
}

// SaveResolver runs inside the store's save transaction. It receives the
// currently persisted row for the task being saved (nil on first save) and
// the non-deleted (owner, status) sibling group of the incoming task, in
// priority order, and returns the siblings to rewrite alongside it plus the
// history record to append, if any. Returning an error aborts the save.
type SaveResolver func(prev *Task, siblings []*Task) (shifted []*Task, hist *History, err error)

// Store defines the persistence contract for tasks and their status history.
// Every read takes the owner identity and excludes soft-deleted rows; a
// foreign-owned or soft-deleted task is reported as ErrTaskNotFound.
type Store interface {
	// SaveTask atomically persists t (inserting or updating by ID).
	// When resolve is non-nil it is invoked inside the same transaction
	// or lock that performs the write, so the sibling group it observes
	// cannot change before the save lands: two concurrent writers cannot
	// both claim the same priority, and a status comparison against prev
	// cannot be based on a stale row. The task, the resolved sibling
	// shifts, and the history record persist together or not at all.
	SaveTask(ctx context.Context, t *Task, resolve SaveResolver) error

	// GetTask retrieves a non-deleted task owned by ownerID.
	GetTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*Task, error)

	// GetTaskByExternalID retrieves a non-deleted task by its stable
	// external identifier.
	GetTaskByExternalID(ctx context.Context, ownerID id.UserID, externalID uuid.UUID) (*Task, error)

	// ListTasks returns the owner's non-deleted tasks matching opts,
	// ordered by priority ascending.
	ListTasks(ctx context.Context, ownerID id.UserID, opts ListOpts) ([]*Task, error)

	// CountTasksByStatus counts the owner's non-deleted tasks per
	// canonical status. Statuses with no tasks map to zero.
	CountTasksByStatus(ctx context.Context, ownerID id.UserID) (map[Status]int, error)

	// ListHistory returns the status history of one of the owner's
	// non-deleted tasks, newest first.
	ListHistory(ctx context.Context, ownerID id.UserID, taskID id.TaskID, limit, offset int) ([]*History, error)
}
