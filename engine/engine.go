package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

// Emitter emits mutation lifecycle events.
// hook.Registry satisfies this interface.
type Emitter interface {
	EmitTaskCreated(ctx context.Context, t *task.Task)
	EmitStatusChanged(ctx context.Context, t *task.Task, h *task.History)
	EmitTaskSoftDeleted(ctx context.Context, t *task.Task)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig overrides the default engine configuration.
func WithConfig(cfg taskboard.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// Engine is the single write path for tasks, boards, and status labels.
// Every save runs the read-compare-write-audit sequence explicitly: no
// implicit lifecycle callback is involved, so the audit contract is
// testable without a framework event system.
type Engine struct {
	tasks   task.Store
	boards  board.Store
	emitter Emitter
	logger  *slog.Logger
	cfg     taskboard.Config
}

// New creates an Engine. boards may be nil, in which case board and status
// label references on tasks are not checked.
func New(tasks task.Store, boards board.Store, opts ...Option) *Engine {
	e := &Engine{
		tasks:  tasks,
		boards: boards,
		logger: slog.Default(),
		cfg:    taskboard.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Draft is the caller-supplied content of a new task. An empty Status
// defaults to pending. Any caller-supplied completion state is ignored:
// the flag is derived from Status.
type Draft struct {
	Title       string
	Description string
	Priority    int
	Status      task.Status
	BoardID     id.BoardID
	StatusLabel id.StatusLabelID
}

// Patch describes a partial task update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Priority    *int
	Status      *task.Status
	BoardID     *id.BoardID
	StatusLabel *id.StatusLabelID
}

// CreateTask validates d and persists a new task owned by ownerID,
// shifting sibling priorities as needed. The first save never produces a
// history record: there is no previous persisted status to compare with.
func (e *Engine) CreateTask(ctx context.Context, ownerID id.UserID, d Draft) (*task.Task, error) {
	if d.Status == "" {
		d.Status = task.StatusPending
	}
	if err := e.validateTitle(d.Title); err != nil {
		return nil, err
	}
	if !d.Status.Valid() {
		return nil, taskboard.ErrInvalidStatus
	}
	if err := e.checkRefs(ctx, ownerID, d.BoardID, d.StatusLabel); err != nil {
		return nil, err
	}

	t := &task.Task{
		Entity:      taskboard.NewEntity(),
		ID:          id.NewTaskID(),
		ExternalID:  uuid.New(),
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Status:      d.Status,
		Completed:   d.Status == task.StatusCompleted,
		OwnerID:     ownerID,
		BoardID:     d.BoardID,
		StatusLabel: d.StatusLabel,
	}

	var shiftCount int
	resolve := func(prev *task.Task, siblings []*task.Task) ([]*task.Task, *task.History, error) {
		shifted, err := e.resolveShifts(t, siblings)
		if err != nil {
			return nil, nil, err
		}
		shiftCount = len(shifted)
		return shifted, nil, nil
	}
	if err := e.tasks.SaveTask(ctx, t, resolve); err != nil {
		return nil, fmt.Errorf("engine: create task: %w", err)
	}

	e.logger.Info("task created",
		slog.String("task_id", t.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Int("shifted_siblings", shiftCount),
	)
	if e.emitter != nil {
		e.emitter.EmitTaskCreated(ctx, t)
	}
	return t, nil
}

// UpdateTask applies p to one of ownerID's tasks. It reads the previously
// persisted row first; when the incoming status differs from the persisted
// status, exactly one history record is appended in the same store
// transaction as the save.
func (e *Engine) UpdateTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID, p Patch) (*task.Task, error) {
	prev, err := e.tasks.GetTask(ctx, ownerID, taskID)
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
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.BoardID != nil {
		next.BoardID = *p.BoardID
	}
	if p.StatusLabel != nil {
		next.StatusLabel = *p.StatusLabel
	}

	if err := e.validateTitle(next.Title); err != nil {
		return nil, err
	}
	if !next.Status.Valid() {
		return nil, taskboard.ErrInvalidStatus
	}
	if err := e.checkRefs(ctx, ownerID, next.BoardID, next.StatusLabel); err != nil {
		return nil, err
	}

	next.Completed = next.Status == task.StatusCompleted
	next.Touch()

	// The status comparison and the sibling shifts are computed inside
	// the store's save transaction, against the row and group as they
	// exist at write time. The read above only seeds the patch.
	var hist *task.History
	resolve := func(persisted *task.Task, siblings []*task.Task) ([]*task.Task, *task.History, error) {
		if persisted == nil || persisted.Deleted {
			return nil, nil, taskboard.ErrTaskNotFound
		}
		shifted, err := e.resolveShifts(&next, siblings)
		if err != nil {
			return nil, nil, err
		}
		if next.Status != persisted.Status {
			hist = &task.History{
				ID:        id.NewHistoryID(),
				TaskID:    next.ID,
				OldStatus: persisted.Status,
				NewStatus: next.Status,
				ChangedAt: time.Now().UTC(),
			}
		}
		return shifted, hist, nil
	}

	if err := e.tasks.SaveTask(ctx, &next, resolve); err != nil {
		return nil, fmt.Errorf("engine: update task: %w", err)
	}

	if hist != nil {
		e.logger.Info("task status changed",
			slog.String("task_id", next.ID.String()),
			slog.String("old_status", string(hist.OldStatus)),
			slog.String("new_status", string(hist.NewStatus)),
		)
		if e.emitter != nil {
			e.emitter.EmitStatusChanged(ctx, &next, hist)
		}
	}
	return &next, nil
}

// UpdateStatus transitions one task to newStatus. It is the explicit form
// of the read-compare-write-audit sequence: callers that only move a task
// between statuses should prefer it over UpdateTask.
func (e *Engine) UpdateStatus(ctx context.Context, ownerID id.UserID, taskID id.TaskID, newStatus task.Status) (*task.Task, error) {
	return e.UpdateTask(ctx, ownerID, taskID, Patch{Status: &newStatus})
}

// CompleteTask transitions one task to the completed status.
func (e *Engine) CompleteTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*task.Task, error) {
	return e.UpdateStatus(ctx, ownerID, taskID, task.StatusCompleted)
}

// SoftDeleteTask sets the task's soft-delete flag. The row is retained but
// excluded from every default read from this point on. Deletion does not
// produce a history record.
func (e *Engine) SoftDeleteTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID) error {
	prev, err := e.tasks.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return err
	}

	next := *prev
	next.Deleted = true
	next.Touch()

	if err := e.tasks.SaveTask(ctx, &next, nil); err != nil {
		return fmt.Errorf("engine: soft delete task: %w", err)
	}

	e.logger.Info("task soft-deleted",
		slog.String("task_id", next.ID.String()),
		slog.String("owner_id", ownerID.String()),
	)
	if e.emitter != nil {
		e.emitter.EmitTaskSoftDeleted(ctx, &next)
	}
	return nil
}

// resolveShifts walks the collision chain created by inserting t into its
// (owner, status) priority group and returns the siblings to shift, in
// chain order. It runs inside the store's save transaction via a
// SaveResolver, so siblings is the group as it exists at write time. The
// chain is bounded by Config.MaxPriorityShifts, so a pathological priority
// assignment fails loudly instead of looping.
func (e *Engine) resolveShifts(t *task.Task, siblings []*task.Task) ([]*task.Task, error) {
	byPriority := make(map[int]*task.Task, len(siblings))
	for _, s := range siblings {
		if s.ID.String() == t.ID.String() {
			// A task never collides with itself: re-saving an
			// unchanged priority must not shift anything.
			continue
		}
		byPriority[s.Priority] = s
	}

	var shifted []*task.Task
	for p := t.Priority; ; p++ {
		s, ok := byPriority[p]
		if !ok {
			break
		}
		if len(shifted) >= e.cfg.MaxPriorityShifts {
			return nil, taskboard.ErrPriorityChainTooLong
		}
		s.Priority++
		s.Touch()
		shifted = append(shifted, s)
	}
	return shifted, nil
}

func (e *Engine) validateTitle(title string) error {
	if utf8.RuneCountInString(title) < e.cfg.MinTitleLength {
		return &taskboard.ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("must be at least %d characters long", e.cfg.MinTitleLength),
		}
	}
	return nil
}

// checkRefs verifies that a task's board and status label references point
// at live rows owned by the same user, and that the label belongs to the
// referenced board.
func (e *Engine) checkRefs(ctx context.Context, ownerID id.UserID, boardID id.BoardID, labelID id.StatusLabelID) error {
	if e.boards == nil {
		return nil
	}
	if !boardID.IsNil() {
		if _, err := e.boards.GetBoard(ctx, ownerID, boardID); err != nil {
			return err
		}
	}
	if !labelID.IsNil() {
		l, err := e.boards.GetStatusLabel(ctx, ownerID, labelID)
		if err != nil {
			return err
		}
		if !boardID.IsNil() && l.BoardID.String() != boardID.String() {
			return &taskboard.ValidationError{
				Field:  "status_label_id",
				Reason: "label belongs to a different board",
			}
		}
	}
	return nil
}
