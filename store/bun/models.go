package bunstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"
)

// ── User model ────────────────────────────────────────────────────

type userModel struct {
	bun.BaseModel `bun:"table:taskboard_users"`

	ID        string    `bun:"id,pk"`
	Username  string    `bun:"username,notnull,unique"`
	Email     string    `bun:"email,notnull,unique"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	parsedID, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse user id %q: %w", m.ID, err)
	}
	return &user.User{
		Entity: taskboard.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       parsedID,
		Username: m.Username,
		Email:    m.Email,
		Name:     m.Name,
	}, nil
}

// ── Board model ───────────────────────────────────────────────────

type boardModel struct {
	bun.BaseModel `bun:"table:taskboard_boards"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	OwnerID     string    `bun:"owner_id,notnull"`
	Deleted     bool      `bun:"deleted,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toBoardModel(b *board.Board) *boardModel {
	return &boardModel{
		ID:          b.ID.String(),
		Title:       b.Title,
		Description: b.Description,
		OwnerID:     b.OwnerID.String(),
		Deleted:     b.Deleted,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func fromBoardModel(m *boardModel) (*board.Board, error) {
	parsedID, err := id.ParseBoardID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse board id %q: %w", m.ID, err)
	}
	ownerID, err := id.ParseUserID(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse owner id %q: %w", m.OwnerID, err)
	}
	return &board.Board{
		Entity: taskboard.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          parsedID,
		Title:       m.Title,
		Description: m.Description,
		OwnerID:     ownerID,
		Deleted:     m.Deleted,
	}, nil
}

// ── Status label model ────────────────────────────────────────────

type statusLabelModel struct {
	bun.BaseModel `bun:"table:taskboard_status_labels"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	BoardID   string    `bun:"board_id,notnull"`
	OwnerID   string    `bun:"owner_id,notnull"`
	Deleted   bool      `bun:"deleted,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toStatusLabelModel(l *board.StatusLabel) *statusLabelModel {
	return &statusLabelModel{
		ID:        l.ID.String(),
		Title:     l.Title,
		BoardID:   l.BoardID.String(),
		OwnerID:   l.OwnerID.String(),
		Deleted:   l.Deleted,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func fromStatusLabelModel(m *statusLabelModel) (*board.StatusLabel, error) {
	parsedID, err := id.ParseStatusLabelID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse status label id %q: %w", m.ID, err)
	}
	boardID, err := id.ParseBoardID(m.BoardID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse board id %q: %w", m.BoardID, err)
	}
	ownerID, err := id.ParseUserID(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse owner id %q: %w", m.OwnerID, err)
	}
	return &board.StatusLabel{
		Entity: taskboard.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      parsedID,
		Title:   m.Title,
		BoardID: boardID,
		OwnerID: ownerID,
		Deleted: m.Deleted,
	}, nil
}

// ── Task model ────────────────────────────────────────────────────

type taskModel struct {
	bun.BaseModel `bun:"table:taskboard_tasks"`

	ID          string    `bun:"id,pk"`
	ExternalID  string    `bun:"external_id,notnull,unique"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	Priority    int       `bun:"priority,notnull,default:0"`
	Status      string    `bun:"status,notnull,default:'pending'"`
	Completed   bool      `bun:"completed,notnull,default:false"`
	OwnerID     string    `bun:"owner_id,notnull"`
	BoardID     string    `bun:"board_id"`
	StatusLabel string    `bun:"status_label_id"`
	Deleted     bool      `bun:"deleted,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toTaskModel(t *task.Task) *taskModel {
	m := &taskModel{
		ID:          t.ID.String(),
		ExternalID:  t.ExternalID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      string(t.Status),
		Completed:   t.Completed,
		OwnerID:     t.OwnerID.String(),
		Deleted:     t.Deleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.BoardID.IsNil() {
		m.BoardID = t.BoardID.String()
	}
	if !t.StatusLabel.IsNil() {
		m.StatusLabel = t.StatusLabel.String()
	}
	return m
}

func fromTaskModel(m *taskModel) (*task.Task, error) {
	parsedID, err := id.ParseTaskID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse task id %q: %w", m.ID, err)
	}
	externalID, err := uuid.Parse(m.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse external id %q: %w", m.ExternalID, err)
	}
	ownerID, err := id.ParseUserID(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse owner id %q: %w", m.OwnerID, err)
	}

	t := &task.Task{
		Entity: taskboard.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          parsedID,
		ExternalID:  externalID,
		Title:       m.Title,
		Description: m.Description,
		Priority:    m.Priority,
		Status:      task.Status(m.Status),
		Completed:   m.Completed,
		OwnerID:     ownerID,
		Deleted:     m.Deleted,
	}
	if m.BoardID != "" {
		boardID, bErr := id.ParseBoardID(m.BoardID)
		if bErr != nil {
			return nil, fmt.Errorf("taskboard/bun: parse board id %q: %w", m.BoardID, bErr)
		}
		t.BoardID = boardID
	}
	if m.StatusLabel != "" {
		labelID, lErr := id.ParseStatusLabelID(m.StatusLabel)
		if lErr != nil {
			return nil, fmt.Errorf("taskboard/bun: parse status label id %q: %w", m.StatusLabel, lErr)
		}
		t.StatusLabel = labelID
	}
	return t, nil
}

// ── History model ─────────────────────────────────────────────────

type historyModel struct {
	bun.BaseModel `bun:"table:taskboard_task_history"`

	ID        string    `bun:"id,pk"`
	TaskID    string    `bun:"task_id,notnull"`
	OldStatus string    `bun:"old_status,notnull"`
	NewStatus string    `bun:"new_status,notnull"`
	ChangedAt time.Time `bun:"changed_at,notnull,default:current_timestamp"`
}

func toHistoryModel(h *task.History) *historyModel {
	return &historyModel{
		ID:        h.ID.String(),
		TaskID:    h.TaskID.String(),
		OldStatus: string(h.OldStatus),
		NewStatus: string(h.NewStatus),
		ChangedAt: h.ChangedAt,
	}
}

func fromHistoryModel(m *historyModel) (*task.History, error) {
	parsedID, err := id.ParseHistoryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse history id %q: %w", m.ID, err)
	}
	taskID, err := id.ParseTaskID(m.TaskID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse task id %q: %w", m.TaskID, err)
	}
	return &task.History{
		ID:        parsedID,
		TaskID:    taskID,
		OldStatus: task.Status(m.OldStatus),
		NewStatus: task.Status(m.NewStatus),
		ChangedAt: m.ChangedAt,
	}, nil
}

// ── Subscription model ────────────────────────────────────────────

type subscriptionModel struct {
	bun.BaseModel `bun:"table:taskboard_subscriptions"`

	ID         string     `bun:"id,pk"`
	UserID     string     `bun:"user_id,notnull,unique"`
	Consent    bool       `bun:"consent,notnull,default:false"`
	Schedule   string     `bun:"schedule,notnull"`
	NextSendAt *time.Time `bun:"next_send_at"`
	LastSentAt *time.Time `bun:"last_sent_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func toSubscriptionModel(sub *report.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:         sub.ID.String(),
		UserID:     sub.UserID.String(),
		Consent:    sub.Consent,
		Schedule:   sub.Schedule,
		NextSendAt: sub.NextSendAt,
		LastSentAt: sub.LastSentAt,
		CreatedAt:  sub.CreatedAt,
		UpdatedAt:  sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*report.Subscription, error) {
	parsedID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse subscription id %q: %w", m.ID, err)
	}
	userID, err := id.ParseUserID(m.UserID)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: parse user id %q: %w", m.UserID, err)
	}
	return &report.Subscription{
		Entity: taskboard.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         parsedID,
		UserID:     userID,
		Consent:    m.Consent,
		Schedule:   m.Schedule,
		NextSendAt: m.NextSendAt,
		LastSentAt: m.LastSentAt,
	}, nil
}
