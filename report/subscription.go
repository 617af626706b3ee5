package report

import (
	"time"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

// DefaultSchedule advances a subscription by exactly one day after each send.
const DefaultSchedule = "@daily"

// Subscription is a per-user record of consent and timing for periodic
// summary emails. At most one subscription exists per user.
type Subscription struct {
	taskboard.Entity

	ID      id.SubscriptionID `json:"id"`
	UserID  id.UserID         `json:"user_id"`
	Consent bool              `json:"consent"`

	// Schedule is a cron expression or descriptor (e.g. "0 9 * * *" or
	// "@daily") used to compute NextSendAt after each send.
	Schedule string `json:"schedule"`

	// NextSendAt is the absolute time the next report is due. A
	// subscription is due when Consent is true and NextSendAt <= now.
	NextSendAt *time.Time `json:"next_send_at,omitempty"`

	// LastSentAt records the last successful dispatch.
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

// Due reports whether the subscription should fire at the given time.
func (s *Subscription) Due(now time.Time) bool {
	return s.Consent && s.NextSendAt != nil && !s.NextSendAt.After(now)
}
