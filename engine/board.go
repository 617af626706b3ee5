package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/id"
)

// BoardPatch describes a partial board update. Nil fields are left unchanged.
type BoardPatch struct {
	Title       *string
	Description *string
}

// CreateBoard validates and persists a new board owned by ownerID.
func (e *Engine) CreateBoard(ctx context.Context, ownerID id.UserID, title, description string) (*board.Board, error) {
	if e.boards == nil {
		return nil, taskboard.ErrNoStore
	}
	if err := e.validateTitle(title); err != nil {
		return nil, err
	}

	b := &board.Board{
		Entity:      taskboard.NewEntity(),
		ID:          id.NewBoardID(),
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := e.boards.SaveBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("engine: create board: %w", err)
	}

	e.logger.Info("board created",
		slog.String("board_id", b.ID.String()),
		slog.String("owner_id", ownerID.String()),
	)
	return b, nil
}

// UpdateBoard applies p to one of ownerID's boards.
func (e *Engine) UpdateBoard(ctx context.Context, ownerID id.UserID, boardID id.BoardID, p BoardPatch) (*board.Board, error) {
	if e.boards == nil {
		return nil, taskboard.ErrNoStore
	}
	prev, err := e.boards.GetBoard(ctx, ownerID, boardID)
	if err != nil {
		return nil, err
	}

	next := *prev
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if err := e.validateTitle(next.Title); err != nil {
		return nil, err
	}
	next.Touch()

	if err := e.boards.SaveBoard(ctx, &next); err != nil {
		return nil, fmt.Errorf("engine: update board: %w", err)
	}
	return &next, nil
}

// SoftDeleteBoard sets the board's soft-delete flag. Tasks on the board are
// left untouched: they keep their board reference and stay visible in
// owner-wide listings.
func (e *Engine) SoftDeleteBoard(ctx context.Context, ownerID id.UserID, boardID id.BoardID) error {
	if e.boards == nil {
		return taskboard.ErrNoStore
	}
	prev, err := e.boards.GetBoard(ctx, ownerID, boardID)
	if err != nil {
		return err
	}

	next := *prev
	next.Deleted = true
	next.Touch()

	if err := e.boards.SaveBoard(ctx, &next); err != nil {
		return fmt.Errorf("engine: soft delete board: %w", err)
	}
	e.logger.Info("board soft-deleted",
		slog.String("board_id", boardID.String()),
		slog.String("owner_id", ownerID.String()),
	)
	return nil
}

// CreateStatusLabel validates and persists a new status label on one of
// ownerID's boards.
func (e *Engine) CreateStatusLabel(ctx context.Context, ownerID id.UserID, boardID id.BoardID, title string) (*board.StatusLabel, error) {
	if e.boards == nil {
		return nil, taskboard.ErrNoStore
	}
	if err := e.validateTitle(title); err != nil {
		return nil, err
	}
	if _, err := e.boards.GetBoard(ctx, ownerID, boardID); err != nil {
		return nil, err
	}

	l := &board.StatusLabel{
		Entity:  taskboard.NewEntity(),
		ID:      id.NewStatusLabelID(),
		Title:   title,
		BoardID: boardID,
		OwnerID: ownerID,
	}
	if err := e.boards.SaveStatusLabel(ctx, l); err != nil {
		return nil, fmt.Errorf("engine: create status label: %w", err)
	}
	return l, nil
}

// SoftDeleteStatusLabel sets the label's soft-delete flag.
func (e *Engine) SoftDeleteStatusLabel(ctx context.Context, ownerID id.UserID, labelID id.StatusLabelID) error {
	if e.boards == nil {
		return taskboard.ErrNoStore
	}
	prev, err := e.boards.GetStatusLabel(ctx, ownerID, labelID)
	if err != nil {
		return err
	}

	next := *prev
	next.Deleted = true
	next.Touch()

	if err := e.boards.SaveStatusLabel(ctx, &next); err != nil {
		return fmt.Errorf("engine: soft delete status label: %w", err)
	}
	return nil
}
