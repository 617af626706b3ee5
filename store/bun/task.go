package bunstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

// SaveTask atomically persists t, applying the resolver's sibling shifts and
// history record in the same transaction. An advisory lock on the owner
// serializes concurrent saves into the same priority group, so the sibling
// snapshot the resolver sees is the one the write lands against. A row lock
// alone would not do: an insert into an empty group has no rows to lock.
func (s *Store) SaveTask(ctx context.Context, t *task.Task, resolve task.SaveResolver) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var shifted []*task.Task
		var hist *task.History
		if resolve != nil {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", t.OwnerID.String()); err != nil {
				return fmt.Errorf("lock owner group: %w", err)
			}

			prev, err := selectTaskForSave(ctx, tx, t.ID)
			if err != nil {
				return err
			}
			siblings, err := selectSiblings(ctx, tx, t)
			if err != nil {
				return err
			}
			if shifted, hist, err = resolve(prev, siblings); err != nil {
				return err
			}
		}

		if err := upsertTask(ctx, tx, t); err != nil {
			return err
		}
		for _, sib := range shifted {
			if err := upsertTask(ctx, tx, sib); err != nil {
				return err
			}
		}
		if hist != nil {
			if _, err := tx.NewInsert().Model(toHistoryModel(hist)).Exec(ctx); err != nil {
				return fmt.Errorf("insert history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return taskboard.ErrDuplicateExternalID
		}
		return fmt.Errorf("taskboard/bun: save task: %w", err)
	}
	return nil
}

// selectTaskForSave reads the persisted row by ID, deleted or not, so the
// resolver can compare against the authoritative previous state. Nil means
// the save is an insert.
func selectTaskForSave(ctx context.Context, tx bun.Tx, taskID id.TaskID) (*task.Task, error) {
	m := new(taskModel)
	err := tx.NewSelect().Model(m).
		Where("id = ?", taskID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select previous task: %w", err)
	}
	return fromTaskModel(m)
}

// selectSiblings reads t's non-deleted (owner, status) priority group in
// priority order, inside the save transaction.
func selectSiblings(ctx context.Context, tx bun.Tx, t *task.Task) ([]*task.Task, error) {
	var models []taskModel
	err := tx.NewSelect().Model(&models).
		Where("owner_id = ?", t.OwnerID.String()).
		Where("status = ?", string(t.Status)).
		Where("deleted = FALSE").
		Order("priority ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select priority siblings: %w", err)
	}
	siblings := make([]*task.Task, 0, len(models))
	for i := range models {
		sib, convErr := fromTaskModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("convert sibling: %w", convErr)
		}
		siblings = append(siblings, sib)
	}
	return siblings, nil
}

func upsertTask(ctx context.Context, tx bun.Tx, t *task.Task) error {
	m := toTaskModel(t)
	_, err := tx.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("priority = EXCLUDED.priority").
		Set("status = EXCLUDED.status").
		Set("completed = EXCLUDED.completed").
		Set("board_id = EXCLUDED.board_id").
		Set("status_label_id = EXCLUDED.status_label_id").
		Set("deleted = EXCLUDED.deleted").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}
	return nil
}

// GetTask retrieves a non-deleted task owned by ownerID.
func (s *Store) GetTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*task.Task, error) {
	m := new(taskModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", taskID.String()).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrTaskNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get task: %w", err)
	}
	return fromTaskModel(m)
}

// GetTaskByExternalID retrieves a non-deleted task by its stable external
// identifier.
func (s *Store) GetTaskByExternalID(ctx context.Context, ownerID id.UserID, externalID uuid.UUID) (*task.Task, error) {
	m := new(taskModel)
	err := s.db.NewSelect().Model(m).
		Where("external_id = ?", externalID.String()).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrTaskNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get task by external id: %w", err)
	}
	return fromTaskModel(m)
}

// ListTasks returns the owner's non-deleted tasks matching opts, ordered by
// priority ascending.
func (s *Store) ListTasks(ctx context.Context, ownerID id.UserID, opts task.ListOpts) ([]*task.Task, error) {
	var models []taskModel
	q := s.db.NewSelect().Model(&models).
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE")
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.BoardID.IsNil() {
		q = q.Where("board_id = ?", opts.BoardID.String())
	}
	if opts.Search != "" {
		q = q.Where("title ILIKE ?", "%"+opts.Search+"%")
	}
	q = q.Order("priority ASC", "created_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskboard/bun: list tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(models))
	for i := range models {
		t, convErr := fromTaskModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("taskboard/bun: list tasks convert: %w", convErr)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// CountTasksByStatus counts the owner's non-deleted tasks per canonical
// status. Statuses with no tasks map to zero.
func (s *Store) CountTasksByStatus(ctx context.Context, ownerID id.UserID) (map[task.Status]int, error) {
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err := s.db.NewSelect().
		TableExpr("taskboard_tasks").
		ColumnExpr("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID.String()).
		Where("deleted = FALSE").
		GroupExpr("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: count tasks by status: %w", err)
	}

	counts := make(map[task.Status]int, 4)
	for _, st := range task.Statuses() {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[task.Status(r.Status)] = r.Count
	}
	return counts, nil
}

// ListHistory returns the status history of one of the owner's non-deleted
// tasks, newest first.
func (s *Store) ListHistory(ctx context.Context, ownerID id.UserID, taskID id.TaskID, limit, offset int) ([]*task.History, error) {
	// Verify ownership first so a foreign task reads as not-found rather
	// than as an empty history.
	if _, err := s.GetTask(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	var models []historyModel
	q := s.db.NewSelect().Model(&models).
		Where("task_id = ?", taskID.String()).
		Order("changed_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("taskboard/bun: list history: %w", err)
	}

	records := make([]*task.History, 0, len(models))
	for i := range models {
		h, convErr := fromHistoryModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("taskboard/bun: list history convert: %w", convErr)
		}
		records = append(records, h)
	}
	return records, nil
}
