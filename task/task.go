package task

import (
	"github.com/google/uuid"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

// Status is the canonical lifecycle state of a task. Custom board-scoped
// status labels layer over these four values; completion derivation and
// report counts always run on the canonical status.
type Status string

const (
	// StatusPending means the task has not been started.
	StatusPending Status = "pending"
	// StatusInProgress means the task is being worked on.
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the task is finished. The Completed flag is
	// derived from this value on every save.
	StatusCompleted Status = "completed"
	// StatusCancelled means the task was abandoned.
	StatusCancelled Status = "cancelled"
)

// Statuses returns the canonical statuses in report order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task represents one unit of work owned by exactly one user.
//
// ExternalID is the opaque, stable identifier exposed in URLs and API
// payloads; it never changes across the task's lifetime. Priority is
// collision-avoided within the owner's (status, priority) group — see the
// engine package. Completed is fully derived from Status and overridden on
// every save.
type Task struct {
	taskboard.Entity

	ID          id.TaskID        `json:"id"`
	ExternalID  uuid.UUID        `json:"external_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Priority    int              `json:"priority"`
	Status      Status           `json:"status"`
	Completed   bool             `json:"completed"`
	OwnerID     id.UserID        `json:"owner_id"`
	BoardID     id.BoardID       `json:"board_id,omitzero"`
	StatusLabel id.StatusLabelID `json:"status_label_id,omitzero"`
	Deleted     bool             `json:"deleted"`
}
