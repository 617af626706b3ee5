package report

import (
	"context"
	"time"

	"github.com/rabilrbl/taskboard/id"
)

// Store defines the persistence contract for report subscriptions.
type Store interface {
	// PutSubscription persists sub, inserting or replacing the user's
	// existing subscription.
	PutSubscription(ctx context.Context, sub *Subscription) error

	// GetSubscription retrieves the subscription of one user.
	GetSubscription(ctx context.Context, userID id.UserID) (*Subscription, error)

	// ListDueSubscriptions returns subscriptions with consent whose
	// NextSendAt has passed at the given time, oldest due first.
	ListDueSubscriptions(ctx context.Context, now time.Time) ([]*Subscription, error)

	// UpdateSubscription persists changes to an existing subscription.
	UpdateSubscription(ctx context.Context, sub *Subscription) error
}
