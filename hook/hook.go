// Package hook defines the extension system for taskboard.
// Extensions are notified of lifecycle events (task created, status changed,
// report sent, etc.) and can react to them — logging, notifications,
// cache invalidation.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"

	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// TaskCreated is called after a task is successfully persisted for the
// first time.
type TaskCreated interface {
	OnTaskCreated(ctx context.Context, t *task.Task) error
}

// StatusChanged is called after a save that changed a task's persisted
// status, alongside the history record the change produced.
type StatusChanged interface {
	OnStatusChanged(ctx context.Context, t *task.Task, h *task.History) error
}

// TaskSoftDeleted is called after a task's soft-delete flag is set.
type TaskSoftDeleted interface {
	OnTaskSoftDeleted(ctx context.Context, t *task.Task) error
}

// ReportSent is called after a report email is successfully dispatched.
type ReportSent interface {
	OnReportSent(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
