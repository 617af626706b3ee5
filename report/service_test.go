package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/store/memory"
)

func TestSubscribeComputesNextSendAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := report.NewService(memory.New())
	userID := id.NewUserID()

	sub, err := svc.Subscribe(ctx, userID, true, "")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Schedule != report.DefaultSchedule {
		t.Fatalf("schedule: got %q, want default", sub.Schedule)
	}
	if sub.NextSendAt == nil {
		t.Fatal("NextSendAt not computed")
	}
	if !sub.NextSendAt.After(time.Now().UTC()) {
		t.Fatalf("NextSendAt in the past: %v", sub.NextSendAt)
	}
}

func TestSubscribeRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := report.NewService(memory.New())

	_, err := svc.Subscribe(ctx, id.NewUserID(), true, "every tuesday-ish")
	if !taskboard.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUnsubscribeClearsNextSendAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	svc := report.NewService(st)
	userID := id.NewUserID()

	if _, err := svc.Subscribe(ctx, userID, true, "0 9 * * *"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	sub, err := svc.Unsubscribe(ctx, userID)
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if sub.Consent || sub.NextSendAt != nil {
		t.Fatalf("unsubscribe left subscription armed: %+v", sub)
	}

	// Re-opt-in keeps the stored schedule and re-arms.
	sub, err = svc.Subscribe(ctx, userID, true, sub.Schedule)
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if sub.Schedule != "0 9 * * *" || sub.NextSendAt == nil {
		t.Fatalf("re-subscribe: %+v", sub)
	}
}
