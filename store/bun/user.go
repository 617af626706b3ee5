package bunstore

import (
	"context"
	"fmt"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/user"
)

// CreateUser persists a new user. Returns ErrDuplicateUser when the
// username or email is already taken.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	m := toUserModel(u)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return taskboard.ErrDuplicateUser
		}
		return fmt.Errorf("taskboard/bun: create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", userID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrUserNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get user: %w", err)
	}
	return fromUserModel(m)
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, taskboard.ErrUserNotFound
		}
		return nil, fmt.Errorf("taskboard/bun: get user by email: %w", err)
	}
	return fromUserModel(m)
}
