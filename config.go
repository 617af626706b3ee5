package taskboard

import "time"

// Config holds tunables shared by the mutation engine and the report
// scheduler.
type Config struct {
	// MinTitleLength is the minimum number of runes accepted in a task
	// or board title.
	MinTitleLength int

	// MaxPriorityShifts bounds the sibling shift chain resolved on a
	// single save. A save that would shift more siblings than this fails
	// with ErrPriorityChainTooLong instead of scanning indefinitely.
	MaxPriorityShifts int

	// TickInterval is how often the report scheduler checks for due
	// subscriptions.
	TickInterval time.Duration

	// MailFrom is the fixed sender address for report emails.
	MailFrom string

	// MailFailSilent downgrades report mail dispatch failures from
	// errors to warnings. Either way a failing send never aborts the
	// remaining subscriptions in the same tick.
	MailFailSilent bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinTitleLength:    5,
		MaxPriorityShifts: 100,
		TickInterval:      60 * time.Second,
		MailFrom:          "tasks@gdctasks.com",
	}
}
