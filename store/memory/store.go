// Package memory provides an in-memory store backend.
//
// All data is copied on the way in and out, so callers can never mutate
// stored state through a retained pointer. The backend is safe for
// concurrent use and is the reference implementation the engine and
// scheduler tests run against.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/board"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/store"
	"github.com/rabilrbl/taskboard/task"
	"github.com/rabilrbl/taskboard/user"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	users  map[string]*user.User          // keyed by user ID
	boards map[string]*board.Board        // keyed by board ID
	labels map[string]*board.StatusLabel  // keyed by label ID
	tasks  map[string]*task.Task          // keyed by task ID
	hist   map[string][]*task.History     // keyed by task ID, append order
	subs   map[string]*report.Subscription // keyed by user ID
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:  make(map[string]*user.User),
		boards: make(map[string]*board.Board),
		labels: make(map[string]*board.StatusLabel),
		tasks:  make(map[string]*task.Task),
		hist:   make(map[string][]*task.History),
		subs:   make(map[string]*report.Subscription),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Migrate is a no-op: the memory backend has no schema.
func (s *Store) Migrate(ctx context.Context) error { return nil }

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Subsequent operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return taskboard.ErrDuplicateUser
		}
	}
	cp := *u
	s.users[u.ID.String()] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, taskboard.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, taskboard.ErrUserNotFound
}

// ─────────────────────────────────────────────────────────────────────────────
// Boards and status labels
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) SaveBoard(ctx context.Context, b *board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	cp := *b
	s.boards[b.ID.String()] = &cp
	return nil
}

func (s *Store) GetBoard(ctx context.Context, ownerID id.UserID, boardID id.BoardID) (*board.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	b, ok := s.boards[boardID.String()]
	if !ok || b.Deleted || b.OwnerID.String() != ownerID.String() {
		return nil, taskboard.ErrBoardNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListBoards(ctx context.Context, ownerID id.UserID) ([]*board.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	var out []*board.Board
	for _, b := range s.boards {
		if b.Deleted || b.OwnerID.String() != ownerID.String() {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveStatusLabel(ctx context.Context, l *board.StatusLabel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	cp := *l
	s.labels[l.ID.String()] = &cp
	return nil
}

func (s *Store) GetStatusLabel(ctx context.Context, ownerID id.UserID, labelID id.StatusLabelID) (*board.StatusLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	l, ok := s.labels[labelID.String()]
	if !ok || l.Deleted || l.OwnerID.String() != ownerID.String() {
		return nil, taskboard.ErrStatusLabelNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) ListStatusLabels(ctx context.Context, ownerID id.UserID, boardID id.BoardID) ([]*board.StatusLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	var out []*board.StatusLabel
	for _, l := range s.labels {
		if l.Deleted || l.OwnerID.String() != ownerID.String() || l.BoardID.String() != boardID.String() {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tasks and history
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) SaveTask(ctx context.Context, t *task.Task, resolve task.SaveResolver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	if _, exists := s.tasks[t.ID.String()]; !exists {
		for _, other := range s.tasks {
			if other.ExternalID == t.ExternalID {
				return taskboard.ErrDuplicateExternalID
			}
		}
	}

	// The resolver runs under the same lock as the write, so the sibling
	// group it sees is the group the save lands against, and no reader
	// observes the task without its shifts or its history record.
	var shifted []*task.Task
	var hist *task.History
	if resolve != nil {
		var prev *task.Task
		if p, ok := s.tasks[t.ID.String()]; ok {
			pcp := *p
			prev = &pcp
		}
		var siblings []*task.Task
		for _, other := range s.tasks {
			if other.Deleted || other.OwnerID.String() != t.OwnerID.String() || other.Status != t.Status {
				continue
			}
			ocp := *other
			siblings = append(siblings, &ocp)
		}
		sort.Slice(siblings, func(i, j int) bool { return siblings[i].Priority < siblings[j].Priority })

		var err error
		shifted, hist, err = resolve(prev, siblings)
		if err != nil {
			return err
		}
	}

	cp := *t
	s.tasks[t.ID.String()] = &cp
	for _, sib := range shifted {
		scp := *sib
		s.tasks[sib.ID.String()] = &scp
	}
	if hist != nil {
		hcp := *hist
		s.hist[t.ID.String()] = append(s.hist[t.ID.String()], &hcp)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	t, ok := s.tasks[taskID.String()]
	if !ok || t.Deleted || t.OwnerID.String() != ownerID.String() {
		return nil, taskboard.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) GetTaskByExternalID(ctx context.Context, ownerID id.UserID, externalID uuid.UUID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	for _, t := range s.tasks {
		if t.ExternalID == externalID && !t.Deleted && t.OwnerID.String() == ownerID.String() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, taskboard.ErrTaskNotFound
}

func (s *Store) ListTasks(ctx context.Context, ownerID id.UserID, opts task.ListOpts) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	var out []*task.Task
	for _, t := range s.tasks {
		if t.Deleted || t.OwnerID.String() != ownerID.String() {
			continue
		}
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if !opts.BoardID.IsNil() && t.BoardID.String() != opts.BoardID.String() {
			continue
		}
		if opts.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(opts.Search)) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (s *Store) CountTasksByStatus(ctx context.Context, ownerID id.UserID) (map[task.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	counts := make(map[task.Status]int, 4)
	for _, st := range task.Statuses() {
		counts[st] = 0
	}
	for _, t := range s.tasks {
		if t.Deleted || t.OwnerID.String() != ownerID.String() {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

func (s *Store) ListHistory(ctx context.Context, ownerID id.UserID, taskID id.TaskID, limit, offset int) ([]*task.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	t, ok := s.tasks[taskID.String()]
	if !ok || t.Deleted || t.OwnerID.String() != ownerID.String() {
		return nil, taskboard.ErrTaskNotFound
	}
	records := s.hist[taskID.String()]
	out := make([]*task.History, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- { // newest first
		cp := *records[i]
		out = append(out, &cp)
	}
	return paginate(out, limit, offset), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Report subscriptions
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) PutSubscription(ctx context.Context, sub *report.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	cp := cloneSubscription(sub)
	s.subs[sub.UserID.String()] = cp
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, userID id.UserID) (*report.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	sub, ok := s.subs[userID.String()]
	if !ok {
		return nil, taskboard.ErrSubscriptionNotFound
	}
	return cloneSubscription(sub), nil
}

func (s *Store) ListDueSubscriptions(ctx context.Context, now time.Time) ([]*report.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, taskboard.ErrStoreClosed
	}
	var out []*report.Subscription
	for _, sub := range s.subs {
		if sub.Due(now) {
			out = append(out, cloneSubscription(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextSendAt.Before(*out[j].NextSendAt) })
	return out, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *report.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taskboard.ErrStoreClosed
	}
	if _, ok := s.subs[sub.UserID.String()]; !ok {
		return taskboard.ErrSubscriptionNotFound
	}
	s.subs[sub.UserID.String()] = cloneSubscription(sub)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// cloneSubscription deep-copies a subscription, including its time pointers.
func cloneSubscription(sub *report.Subscription) *report.Subscription {
	cp := *sub
	if sub.NextSendAt != nil {
		t := *sub.NextSendAt
		cp.NextSendAt = &t
	}
	if sub.LastSentAt != nil {
		t := *sub.LastSentAt
		cp.LastSentAt = &t
	}
	return &cp
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
