// Package user defines the user identity surface consumed by the rest of
// taskboard. Authentication itself is an external collaborator; this package
// only models the identity every query is scoped by, plus the email and
// display name the report scheduler needs.
package user

import (
	"context"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
)

// User is a registered account owning boards, tasks, and a report
// subscription.
type User struct {
	taskboard.Entity

	ID       id.UserID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name,omitempty"`
}

// DisplayName returns the user's full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Store defines the persistence contract for users.
type Store interface {
	// CreateUser persists a new user. Returns ErrDuplicateUser if the
	// username or email is already taken.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID) (*User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
