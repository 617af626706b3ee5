// Package store defines the aggregate persistence interface for taskboard.
//
// Each subsystem declares its own narrow store contract (task.Store,
// board.Store, user.Store, report.Store) next to the types it persists.
// Backends implement them all and compose into this aggregate, which adds
// the lifecycle operations a long-lived process needs.
//
// Two backends ship with taskboard: store/memory for tests and embedded
// use, and store/bun for PostgreSQL.
package store

import (
	"context"

	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"
)

// Store is the full persistence surface.
type Store interface {
	user.Store
	board.Store
	task.Store
	report.Store

	// Migrate brings the backend schema up to date. Backends without a
	// schema return nil.
	Migrate(ctx context.Context) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources. Operations after Close return
	// ErrStoreClosed.
	Close() error
}
