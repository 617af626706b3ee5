package board

import (
	"context"

	"github.com/rabilrbl/taskboard/id"
)

// Store defines the persistence contract for boards and status labels.
// Every read takes the owner identity and excludes soft-deleted rows; a
// foreign-owned or soft-deleted row is reported as not found.
type Store interface {
	// SaveBoard persists b, inserting or updating by ID.
	SaveBoard(ctx context.Context, b *Board) error

	// GetBoard retrieves a non-deleted board owned by ownerID.
	GetBoard(ctx context.Context, ownerID id.UserID, boardID id.BoardID) (*Board, error)

	// ListBoards returns the owner's non-deleted boards, oldest first.
	ListBoards(ctx context.Context, ownerID id.UserID) ([]*Board, error)

	// SaveStatusLabel persists l, inserting or updating by ID.
	SaveStatusLabel(ctx context.Context, l *StatusLabel) error

	// GetStatusLabel retrieves a non-deleted status label owned by ownerID.
	GetStatusLabel(ctx context.Context, ownerID id.UserID, labelID id.StatusLabelID) (*StatusLabel, error)

	// ListStatusLabels returns the non-deleted labels of one board,
	// oldest first.
	ListStatusLabels(ctx context.Context, ownerID id.UserID, boardID id.BoardID) ([]*StatusLabel, error)
}
