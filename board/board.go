package board

import (
	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

// Board is a named, owner-scoped grouping of tasks and custom status labels.
type Board struct {
	taskboard.Entity

	ID          id.BoardID `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OwnerID     id.UserID  `json:"owner_id"`
	Deleted     bool       `json:"deleted"`
}

// StatusLabel is a user-defined, board-scoped label layered over the
// canonical task statuses. Labels are presentation-level: completion
// derivation and report counts always run on the canonical status.
type StatusLabel struct {
	taskboard.Entity

	ID      id.StatusLabelID `json:"id"`
	Title   string           `json:"title"`
	BoardID id.BoardID       `json:"board_id"`
	OwnerID id.UserID        `json:"owner_id"`
	Deleted bool             `json:"deleted"`
}
