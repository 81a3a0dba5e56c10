package task

import (
	"context"
	"sort"
	"sync"

	domain "github.com/example/task-manager/domain/task"
)

// MemoryRepository provides in-memory task storage. Stored tasks are copied
// in and out so callers never share state with the map.
type MemoryRepository struct {
	tasks map[string]*domain.Task
	mu    sync.RWMutex
}

var _ domain.Backend = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory task repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]*domain.Task),
	}
}

// Insert saves a new task.
func (r *MemoryRepository) Insert(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[t.ID] = t.Clone()
	return nil
}

// FindOwned finds a task by ID and owner.
func (r *MemoryRepository) FindOwned(_ context.Context, id, ownerID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, found := r.tasks[id]
	if !found || t.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

// ListOwned returns all tasks of an owner, newest first.
func (r *MemoryRepository) ListOwned(_ context.Context, ownerID string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			result = append(result, t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// ReplaceOwned overwrites a stored task. The owner is never reassigned.
func (r *MemoryRepository) ReplaceOwned(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, found := r.tasks[t.ID]
	if !found || current.OwnerID != t.OwnerID {
		return domain.ErrNotFound
	}
	next := t.Clone()
	next.CreatedAt = current.CreatedAt
	r.tasks[t.ID] = next
	return nil
}

// DeleteOwned deletes a task by ID and owner.
func (r *MemoryRepository) DeleteOwned(_ context.Context, id, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, found := r.tasks[id]
	if !found || t.OwnerID != ownerID {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

// Count returns the number of stored tasks across all owners.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close(context.Context) error { return nil }
