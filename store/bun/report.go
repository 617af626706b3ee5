package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/report"
)

// PutSubscription inserts or replaces the user's subscription.
func (s *Store) PutSubscription(ctx context.Context, sub *report.Subscription) error {
	m := toSubscriptionModel(sub)
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("consent = EXCLUDED.consent").
		Set("schedule = EXCLUDED.schedule").
		Set("next_send_at = EXCLUDED.next_send_at").
		Set("last_sent_at = EXCLUDED.last_sent_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskboard/bun: put subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves the subscription of one user.
func (s *Store) GetSubscription(ctx context.Context, userID id.UserID) (*report.Subscription, error) {
	m := new(subscriptionModel)
	err := s.db.NewSelect().Model(m).
		Where("user_id = ?", userID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get subscription: %w", err)
	}
	return fromSubscriptionModel(m)
}

// ListDueSubscriptions returns consenting subscriptions whose NextSendAt
// has passed at the given time, oldest due first.
func (s *Store) ListDueSubscriptions(ctx context.Context, now time.Time) ([]*report.Subscription, error) {
	var models []subscriptionModel
	err := s.db.NewSelect().Model(&models).
		Where("consent = TRUE").
		Where("next_send_at IS NOT NULL").
		Where("next_send_at <= ?", now).
		Order("next_send_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskboard/bun: list due subscriptions: %w", err)
	}

	subs := make([]*report.Subscription, 0, len(models))
	for i := range models {
		sub, convErr := fromSubscriptionModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("taskboard/bun: list due subscriptions convert: %w", convErr)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// UpdateSubscription persists changes to an existing subscription.
func (s *Store) UpdateSubscription(ctx context.Context, sub *report.Subscription) error {
	m := toSubscriptionModel(sub)
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("taskboard/bun: update subscription: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return taskboard.ErrSubscriptionNotFound
	}
	return nil
}
