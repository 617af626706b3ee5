package taskboard

import (
	"errors"
	"fmt"
)

var (
	// Store errors.
	ErrNoStore         = errors.New("taskboard: no store configured")
	ErrStoreClosed     = errors.New("taskboard: store closed")
	ErrMigrationFailed = errors.New("taskboard: migration failed")

	// Not found errors. A row owned by another user, or one whose
	// soft-delete flag is set, surfaces as not-found — never as a
	// permission-denied distinction.
	ErrTaskNotFound         = errors.New("taskboard: task not found")
	ErrBoardNotFound        = errors.New("taskboard: board not found")
	ErrStatusLabelNotFound  = errors.New("taskboard: status label not found")
	ErrUserNotFound         = errors.New("taskboard: user not found")
	ErrSubscriptionNotFound = errors.New("taskboard: report subscription not found")

	// Conflict errors.
	ErrDuplicateUser         = errors.New("taskboard: user already exists")
	ErrDuplicateExternalID   = errors.New("taskboard: duplicate task external id")
	ErrDuplicateSubscription = errors.New("taskboard: report subscription already exists")

	// State errors.
	ErrInvalidStatus        = errors.New("taskboard: invalid task status")
	ErrPriorityChainTooLong = errors.New("taskboard: priority shift chain exceeds configured bound")
)

// ValidationError reports a field-level validation failure detected before
// persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("taskboard: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
