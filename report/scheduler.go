package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"
)

// Emitter emits report lifecycle events. hook.Registry satisfies this
// interface.
type Emitter interface {
	EmitReportSent(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the structured logger for the scheduler.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithTickInterval sets how often due subscriptions are polled.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithFrom sets the sender address on outgoing reports.
func WithFrom(from string) SchedulerOption {
	return func(s *Scheduler) { s.from = from }
}

// WithFailSilent controls behavior on mail delivery failure. When set, a
// failed send still advances the subscription so the next slot is not
// flooded with retries; otherwise the subscription stays due and is
// retried on the next tick.
func WithFailSilent(v bool) SchedulerOption {
	return func(s *Scheduler) { s.failSilent = v }
}

// WithEmitter sets the report lifecycle event emitter.
func WithEmitter(em Emitter) SchedulerOption {
	return func(s *Scheduler) { s.emitter = em }
}

// Scheduler periodically emails each consenting user a summary of their
// task counts. It polls the subscription store for due rows, sends one
// message per subscription, and advances NextSendAt along the
// subscription's cron schedule.
//
// One scheduler instance per store is assumed. Two concurrent instances
// would double-send; coordination across processes is the deployment's
// concern.
type Scheduler struct {
	subs   Store
	tasks  task.Store
	users  user.Store
	mailer mail.Mailer

	emitter    Emitter
	logger     *slog.Logger
	interval   time.Duration
	from       string
	failSilent bool

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	schedMu sync.Mutex
	scheds  map[string]cron.Schedule
}

// NewScheduler creates a report scheduler.
func NewScheduler(subs Store, tasks task.Store, users user.Store, mailer mail.Mailer, opts ...SchedulerOption) *Scheduler {
	cfg := taskboard.DefaultConfig()
	s := &Scheduler{
		subs:     subs,
		tasks:    tasks,
		users:    users,
		mailer:   mailer,
		logger:   slog.Default(),
		interval: cfg.TickInterval,
		from:     cfg.MailFrom,
		scheds:   make(map[string]cron.Schedule),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the polling loop. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("report: scheduler already started")
	}
	s.started = true
	s.stopCh = make(chan struct{})

	s.logger.Info("report scheduler starting",
		slog.Duration("tick_interval", s.interval),
	)

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop halts the polling loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("report scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Fire once on startup so reports missed during downtime go out
	// without waiting a full interval.
	if err := s.Tick(ctx, time.Now().UTC()); err != nil {
		s.logger.Error("report tick failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.Tick(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("report tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Tick processes every subscription due at now, sequentially. A failure on
// one subscription is logged and does not block the rest. Tick is exported
// so deployments driving the schedule externally (a cron job, a message
// queue consumer) can call it directly instead of running Start.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	due, err := s.subs.ListDueSubscriptions(ctx, now)
	if err != nil {
		return fmt.Errorf("report: list due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Debug("report tick", slog.Int("due", len(due)))
	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.fire(ctx, sub, now); err != nil {
			s.logger.Error("report dispatch failed",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("user_id", sub.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// fire sends one report and advances the subscription. On delivery failure
// the subscription is left due unless the scheduler is fail-silent.
func (s *Scheduler) fire(ctx context.Context, sub *Subscription, now time.Time) error {
	u, err := s.users.GetUser(ctx, sub.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	counts, err := s.tasks.CountTasksByStatus(ctx, sub.UserID)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}

	msg := Compose(u, counts, s.from)
	if err := s.mailer.Send(ctx, msg); err != nil {
		if !s.failSilent {
			return fmt.Errorf("send report: %w", err)
		}
		s.logger.Warn("report send failed, advancing anyway",
			slog.String("user_id", sub.UserID.String()),
			slog.String("error", err.Error()),
		)
	} else {
		sent := now
		sub.LastSentAt = &sent
	}

	next := s.schedule(sub.Schedule).Next(now)
	sub.NextSendAt = &next
	sub.Touch()
	if err := s.subs.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("advance subscription: %w", err)
	}

	s.logger.Info("report sent",
		slog.String("user_id", sub.UserID.String()),
		slog.Time("next_send_at", next),
	)
	if s.emitter != nil {
		s.emitter.EmitReportSent(ctx, sub.UserID, sub.ID)
	}
	return nil
}

// schedule returns the parsed cron schedule for spec, caching parses.
// An unparsable spec falls back to DefaultSchedule; the service validates
// schedules at write time, so this only covers rows written out-of-band.
func (s *Scheduler) schedule(spec string) cron.Schedule {
	if spec == "" {
		spec = DefaultSchedule
	}
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if sched, ok := s.scheds[spec]; ok {
		return sched
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		s.logger.Warn("invalid subscription schedule",
			slog.String("schedule", spec),
			slog.String("error", err.Error()),
		)
		sched, _ = cron.ParseStandard(DefaultSchedule)
	}
	s.scheds[spec] = sched
	return sched
}
