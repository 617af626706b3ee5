package bunstore

import (
	"context"
	"fmt"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/id"
)

// SaveBoard persists b, inserting or updating by ID.
func (s *Store) SaveBoard(ctx context.Context, b *board.Board) error {
	m := toBoardModel(b)
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("deleted = EXCLUDED.deleted").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskboard/bun: save board: %w", err)
	}
	return nil
}

// GetBoard retrieves a non-deleted board owned by ownerID.
func (s *Store) GetBoard(ctx context.Context, ownerID id.UserID, boardID id.BoardID) (*board.Board, error) {
	m := new(boardModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", boardID.String()).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrBoardNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get board: %w", err)
	}
	return fromBoardModel(m)
}

// ListBoards returns the owner's non-deleted boards, oldest first.
func (s *Store) ListBoards(ctx context.Context, ownerID id.UserID) ([]*board.Board, error) {
	var models []boardModel
	err := s.db.NewSelect().Model(&models).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: list boards: %w", err)
	}

	boards := make([]*board.Board, 0, len(models))
	for i := range models {
		b, convErr := fromBoardModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("taskboard/bun: list boards convert: %w", convErr)
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// SaveStatusLabel persists l, inserting or updating by ID.
func (s *Store) SaveStatusLabel(ctx context.Context, l *board.StatusLabel) error {
	m := toStatusLabelModel(l)
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("deleted = EXCLUDED.deleted").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskboard/bun: save status label: %w", err)
	}
	return nil
}

// GetStatusLabel retrieves a non-deleted status label owned by ownerID.
func (s *Store) GetStatusLabel(ctx context.Context, ownerID id.UserID, labelID id.StatusLabelID) (*board.StatusLabel, error) {
	m := new(statusLabelModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", labelID.String()).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrStatusLabelNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get status label: %w", err)
	}
	return fromStatusLabelModel(m)
}

// ListStatusLabels returns the non-deleted labels of one board, oldest first.
func (s *Store) ListStatusLabels(ctx context.Context, ownerID id.UserID, boardID id.BoardID) ([]*board.StatusLabel, error) {
	var models []statusLabelModel
	err := s.db.NewSelect().Model(&models).
		Where("owner_id = ?", ownerID.String()).
		Where("board_id = ?", boardID.String()).
		Where("deleted = FALSE").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: list status labels: %w", err)
	}

	labels := make([]*board.StatusLabel, 0, len(models))
	for i := range models {
		l, convErr := fromStatusLabelModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("taskboard/bun: list status labels convert: %w", convErr)
		}
		labels = append(labels, l)
	}
	return labels, nil
}
