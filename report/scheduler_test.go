package report_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/store/memory"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"

	"github.com/google/uuid"
)

// mailerSpy records sends and fails for addresses in failFor.
type mailerSpy struct {
	mu      sync.Mutex
	sent    []*mail.Message
	failFor map[string]bool
}

func (m *mailerSpy) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if m.failFor[to] {
			return errors.New("relay refused")
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailerSpy) messages() []*mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mail.Message(nil), m.sent...)
}

func seedUser(t *testing.T, st *memory.Store, username, email string) *user.User {
	t.Helper()
	u := &user.User{Entity: taskboard.NewEntity(), ID: id.NewUserID(), Username: username, Email: email}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedTask(t *testing.T, st *memory.Store, ownerID id.UserID, status task.Status, priority int) {
	t.Helper()
	tk := &task.Task{
		Entity:     taskboard.NewEntity(),
		ID:         id.NewTaskID(),
		ExternalID: uuid.New(),
		Title:      "seeded task row",
		Priority:   priority,
		Status:     status,
		Completed:  status == task.StatusCompleted,
		OwnerID:    ownerID,
	}
	if err := st.SaveTask(context.Background(), tk, nil); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
}

func seedSubscription(t *testing.T, st *memory.Store, userID id.UserID, due time.Time) *report.Subscription {
	t.Helper()
	sub := &report.Subscription{
		Entity:     taskboard.NewEntity(),
		ID:         id.NewSubscriptionID(),
		UserID:     userID,
		Consent:    true,
		Schedule:   report.DefaultSchedule,
		NextSendAt: &due,
	}
	if err := st.PutSubscription(context.Background(), sub); err != nil {
		t.Fatalf("PutSubscription: %v", err)
	}
	return sub
}

func TestTickSendsCountSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{}

	u := seedUser(t, st, "ada", "ada@example.com")
	seedTask(t, st, u.ID, task.StatusPending, 1)
	seedTask(t, st, u.ID, task.StatusPending, 2)
	seedTask(t, st, u.ID, task.StatusCompleted, 1)
	seedTask(t, st, u.ID, task.StatusInProgress, 1)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedSubscription(t, st, u.ID, now.Add(-time.Minute))

	sched := report.NewScheduler(st, st, st, spy)
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	msgs := spy.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent: got %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.Subject != report.Subject {
		t.Fatalf("subject: got %q", msg.Subject)
	}
	if msg.To[0] != "ada@example.com" {
		t.Fatalf("recipient: got %q", msg.To[0])
	}
	for _, want := range []string{
		"Hi ada,",
		"2 pending tasks",
		"1 completed tasks",
		"1 in progress tasks",
		"0 cancelled tasks",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestTickAdvancesNextSendAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{}

	u := seedUser(t, st, "bob", "bob@example.com")
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	seedSubscription(t, st, u.ID, now.Add(-time.Hour))

	sched := report.NewScheduler(st, st, st, spy)
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	sub, err := st.GetSubscription(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	wantNext := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) // next @daily slot
	if sub.NextSendAt == nil || !sub.NextSendAt.Equal(wantNext) {
		t.Fatalf("NextSendAt: got %v, want %v", sub.NextSendAt, wantNext)
	}
	if sub.LastSentAt == nil || !sub.LastSentAt.Equal(now) {
		t.Fatalf("LastSentAt: got %v, want %v", sub.LastSentAt, now)
	}

	// Immediately re-ticking must not double-send.
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if got := len(spy.messages()); got != 1 {
		t.Fatalf("double send: got %d messages, want 1", got)
	}
}

func TestTickOneFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{failFor: map[string]bool{"broken@example.com": true}}

	broken := seedUser(t, st, "broken", "broken@example.com")
	healthy := seedUser(t, st, "healthy", "healthy@example.com")
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	// The failing subscription is older, so it is processed first.
	seedSubscription(t, st, broken.ID, now.Add(-2*time.Hour))
	seedSubscription(t, st, healthy.ID, now.Add(-time.Hour))

	sched := report.NewScheduler(st, st, st, spy)
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	msgs := spy.messages()
	if len(msgs) != 1 || msgs[0].To[0] != "healthy@example.com" {
		t.Fatalf("got %+v, want one message to healthy@example.com", msgs)
	}

	// The failed subscription stays due for retry on the next tick.
	sub, err := st.GetSubscription(ctx, broken.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if !sub.Due(now) {
		t.Fatalf("failed subscription no longer due: %+v", sub)
	}
}

func TestTickFailSilentAdvances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{failFor: map[string]bool{"broken@example.com": true}}

	u := seedUser(t, st, "broken", "broken@example.com")
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedSubscription(t, st, u.ID, now.Add(-time.Hour))

	sched := report.NewScheduler(st, st, st, spy, report.WithFailSilent(true))
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	sub, err := st.GetSubscription(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub.Due(now) {
		t.Fatalf("fail-silent subscription still due: %+v", sub)
	}
	if sub.LastSentAt != nil {
		t.Fatalf("LastSentAt set despite failure: %v", sub.LastSentAt)
	}
}

func TestNoConsentNeverFires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{}

	u := seedUser(t, st, "quiet", "quiet@example.com")
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	sub := &report.Subscription{
		Entity:     taskboard.NewEntity(),
		ID:         id.NewSubscriptionID(),
		UserID:     u.ID,
		Consent:    false,
		Schedule:   report.DefaultSchedule,
		NextSendAt: &past,
	}
	if err := st.PutSubscription(ctx, sub); err != nil {
		t.Fatalf("PutSubscription: %v", err)
	}

	sched := report.NewScheduler(st, st, st, spy)
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := len(spy.messages()); got != 0 {
		t.Fatalf("sent %d messages to a non-consenting user", got)
	}
}

func TestCountsExcludeSoftDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	spy := &mailerSpy{}

	u := seedUser(t, st, "tidy", "tidy@example.com")
	seedTask(t, st, u.ID, task.StatusPending, 1)
	deleted := &task.Task{
		Entity:     taskboard.NewEntity(),
		ID:         id.NewTaskID(),
		ExternalID: uuid.New(),
		Title:      "gone but stored",
		Priority:   2,
		Status:     task.StatusPending,
		OwnerID:    u.ID,
		Deleted:    true,
	}
	if err := st.SaveTask(ctx, deleted, nil); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	now := time.Now().UTC()
	seedSubscription(t, st, u.ID, now.Add(-time.Minute))

	sched := report.NewScheduler(st, st, st, spy)
	if err := sched.Tick(ctx, now); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	msgs := spy.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Body, "1 pending tasks") {
		t.Fatalf("deleted task counted: %+v", msgs)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	sched := report.NewScheduler(st, st, st, &mailerSpy{}, report.WithTickInterval(10*time.Millisecond))

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sched.Start(ctx); err == nil {
		t.Fatal("second Start succeeded")
	}
	if err := sched.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop is idempotent.
	if err := sched.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
