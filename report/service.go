package report

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

// Service manages report subscriptions. The scheduler reads what the
// service writes; neither touches the other's state directly.
type Service struct {
	subs Store
}

// NewService creates a subscription service backed by subs.
func NewService(subs Store) *Service {
	return &Service{subs: subs}
}

// Subscribe creates or updates the user's subscription. An empty schedule
// selects DefaultSchedule. Granting consent (re)computes NextSendAt from
// the schedule so the first report goes out at the next scheduled slot,
// not immediately.
func (s *Service) Subscribe(ctx context.Context, userID id.UserID, consent bool, schedule string) (*Subscription, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, &taskboard.ValidationError{Field: "schedule", Reason: err.Error()}
	}

	now := time.Now().UTC()
	sub, err := s.subs.GetSubscription(ctx, userID)
	switch {
	case errors.Is(err, taskboard.ErrSubscriptionNotFound):
		sub = &Subscription{
			Entity:   taskboard.NewEntity(),
			ID:       id.NewSubscriptionID(),
			UserID:   userID,
			Consent:  consent,
			Schedule: schedule,
		}
	case err != nil:
		return nil, err
	default:
		sub.Consent = consent
		sub.Schedule = schedule
		sub.Touch()
	}

	if consent {
		next := sched.Next(now)
		sub.NextSendAt = &next
	} else {
		sub.NextSendAt = nil
	}

	if err := s.subs.PutSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe revokes consent, keeping the subscription row and its
// LastSentAt for a later re-opt-in.
func (s *Service) Unsubscribe(ctx context.Context, userID id.UserID) (*Subscription, error) {
	sub, err := s.subs.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Subscribe(ctx, userID, false, sub.Schedule)
}

// Get retrieves the user's subscription.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Subscription, error) {
	return s.subs.GetSubscription(ctx, userID)
}
