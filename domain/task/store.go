package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Backend persists tasks. Backends store what they are given; ids,
// timestamps and invariants are the Store's job.
type Backend interface {
	// Insert writes a new task.
	Insert(ctx context.Context, t *Task) error
	// FindOwned returns ErrNotFound when no task has both id and ownerID.
	FindOwned(ctx context.Context, id, ownerID string) (*Task, error)
	// ListOwned returns the owner's tasks ordered by CreatedAt, then ID, descending.
	ListOwned(ctx context.Context, ownerID string) ([]*Task, error)
	// ReplaceOwned overwrites the mutable fields of the task matching
	// (t.ID, t.OwnerID). It returns ErrNotFound when nothing matched.
	ReplaceOwned(ctx context.Context, t *Task) error
	// DeleteOwned removes the matching task and reports whether one existed.
	DeleteOwned(ctx context.Context, id, ownerID string) (bool, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close(ctx context.Context) error
}

// Store is the task store accessor: owner-scoped CRUD primitives that
// enforce the task invariants on top of a Backend.
type Store struct {
	backend Backend
	now     func() time.Time
	newID   func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   newTaskID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTaskID returns a time-ordered UUID so that ties on CreatedAt still
// list newest first.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Create validates f and persists a new task with a server-assigned id and
// timestamps. It returns a *ValidationError for bad input.
func (s *Store) Create(ctx context.Context, f Fields) (*Task, error) {
	t, err := Build(f)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.backend.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// FindOwned returns the task only if it belongs to ownerID. A missing task
// and a task owned by someone else are indistinguishable: found is false
// and err is nil in both cases.
func (s *Store) FindOwned(ctx context.Context, id, ownerID string) (t *Task, found bool, err error) {
	t, err = s.backend.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find task: %w", err)
	}
	return t, true, nil
}

// ListOwned returns every task of ownerID, most recently created first.
func (s *Store) ListOwned(ctx context.Context, ownerID string) ([]*Task, error) {
	tasks, err := s.backend.ListOwned(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	return tasks, nil
}

// ApplyUpdate applies patch to t in memory and returns the changed field
// names. Nothing is persisted until Persist succeeds.
func (s *Store) ApplyUpdate(t *Task, patch Patch) []string {
	return t.Apply(patch)
}

// Persist validates the full state of t, refreshes UpdatedAt and writes it.
// On a *ValidationError t is left untouched.
func (s *Store) Persist(ctx context.Context, t *Task) (*Task, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	previous := t.UpdatedAt
	updatedAt := s.timestamp()
	if !updatedAt.After(previous) {
		updatedAt = previous.Add(time.Millisecond)
	}
	t.UpdatedAt = updatedAt

	if err := s.backend.ReplaceOwned(ctx, t); err != nil {
		t.UpdatedAt = previous
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return t, nil
}

// DeleteOwned removes the task if ownerID owns it. Deleting a missing or
// foreign task is not an error; deleted reports whether anything was removed.
func (s *Store) DeleteOwned(ctx context.Context, id, ownerID string) (deleted bool, err error) {
	deleted, err = s.backend.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return deleted, nil
}

// timestamp returns the current time at the precision every backend keeps.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
