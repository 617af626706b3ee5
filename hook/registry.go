package hook

import (
	"context"
	"log/slog"

	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type taskCreatedEntry struct {
	name string
	hook TaskCreated
}

type statusChangedEntry struct {
	name string
	hook StatusChanged
}

type taskSoftDeletedEntry struct {
	name string
	hook TaskSoftDeleted
}

type reportSentEntry struct {
	name string
	hook ReportSent
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	taskCreated     []taskCreatedEntry
	statusChanged   []statusChangedEntry
	taskSoftDeleted []taskSoftDeletedEntry
	reportSent      []reportSentEntry
	shutdown        []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(TaskCreated); ok {
		r.taskCreated = append(r.taskCreated, taskCreatedEntry{name, h})
	}
	if h, ok := e.(StatusChanged); ok {
		r.statusChanged = append(r.statusChanged, statusChangedEntry{name, h})
	}
	if h, ok := e.(TaskSoftDeleted); ok {
		r.taskSoftDeleted = append(r.taskSoftDeleted, taskSoftDeletedEntry{name, h})
	}
	if h, ok := e.(ReportSent); ok {
		r.reportSent = append(r.reportSent, reportSentEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitTaskCreated notifies all extensions that implement TaskCreated.
func (r *Registry) EmitTaskCreated(ctx context.Context, t *task.Task) {
	for _, e := range r.taskCreated {
		if err := e.hook.OnTaskCreated(ctx, t); err != nil {
			r.logHookError("OnTaskCreated", e.name, err)
		}
	}
}

// EmitStatusChanged notifies all extensions that implement StatusChanged.
func (r *Registry) EmitStatusChanged(ctx context.Context, t *task.Task, h *task.History) {
	for _, e := range r.statusChanged {
		if err := e.hook.OnStatusChanged(ctx, t, h); err != nil {
			r.logHookError("OnStatusChanged", e.name, err)
		}
	}
}

// EmitTaskSoftDeleted notifies all extensions that implement TaskSoftDeleted.
func (r *Registry) EmitTaskSoftDeleted(ctx context.Context, t *task.Task) {
	for _, e := range r.taskSoftDeleted {
		if err := e.hook.OnTaskSoftDeleted(ctx, t); err != nil {
			r.logHookError("OnTaskSoftDeleted", e.name, err)
		}
	}
}

// EmitReportSent notifies all extensions that implement ReportSent.
func (r *Registry) EmitReportSent(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID) {
	for _, e := range r.reportSent {
		if err := e.hook.OnReportSent(ctx, userID, subscriptionID); err != nil {
			r.logHookError("OnReportSent", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the write path.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
