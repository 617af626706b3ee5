package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/task"
)

// auditExt implements TaskCreated and StatusChanged but not the other hooks.
type auditExt struct {
	name    string
	created int
	changed int
	fail    bool
}

func (e *auditExt) Name() string { return e.name }

func (e *auditExt) OnTaskCreated(ctx context.Context, t *task.Task) error {
	e.created++
	if e.fail {
		return errors.New("audit backend down")
	}
	return nil
}

func (e *auditExt) OnStatusChanged(ctx context.Context, t *task.Task, h *task.History) error {
	e.changed++
	return nil
}

func TestRegistryDispatchesOnlyImplementedHooks(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	ext := &auditExt{name: "audit"}
	r.Register(ext)

	ctx := context.Background()
	tk := &task.Task{ID: id.NewTaskID()}
	r.EmitTaskCreated(ctx, tk)
	r.EmitStatusChanged(ctx, tk, &task.History{})
	r.EmitTaskSoftDeleted(ctx, tk) // not implemented, must not panic
	r.EmitShutdown(ctx)

	if ext.created != 1 || ext.changed != 1 {
		t.Fatalf("dispatch counts: created=%d changed=%d", ext.created, ext.changed)
	}
	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("Extensions: got %d, want 1", got)
	}
}

func TestRegistryHookErrorsDoNotPropagate(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	failing := &auditExt{name: "failing", fail: true}
	healthy := &auditExt{name: "healthy"}
	r.Register(failing)
	r.Register(healthy)

	r.EmitTaskCreated(context.Background(), &task.Task{ID: id.NewTaskID()})

	// The failing extension must not stop the next one.
	if healthy.created != 1 {
		t.Fatalf("healthy extension not notified: %d", healthy.created)
	}
}
