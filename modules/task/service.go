package task

import (
	"context"
	"errors"
	"log"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
)

// TaskService is the task request handler. It applies request defaults,
// drives the store and publishes lifecycle events. It keeps no per-request
// state; the owner is always passed in explicitly.
type TaskService struct {
	store *domain.Store
	bus   mono.EventBus
	now   func() time.Time
}

// NewTaskService creates a TaskService over store.
func NewTaskService(store *domain.Store) *TaskService {
	return &TaskService{
		store: store,
		now:   time.Now,
	}
}

// SetEventBus sets the bus used for lifecycle events. A nil bus disables them.
func (s *TaskService) SetEventBus(bus mono.EventBus) {
	s.bus = bus
}

// Create stores a new task for req.UserID.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (TaskResult, error) {
	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	status := domain.Status(req.Status)
	if status == "" {
		status = domain.StatusPending
	}

	created, err := s.store.Create(ctx, domain.Fields{
		OwnerID:     req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		Status:      status,
	})
	if err != nil {
		if result, ok := validationResult(err); ok {
			return result, nil
		}
		return TaskResult{}, err
	}

	s.publishCreated(created)
	return TaskResult{Task: created}, nil
}

// Get returns one of the caller's tasks.
func (s *TaskService) Get(ctx context.Context, req GetTaskRequest) (TaskResult, error) {
	t, found, err := s.store.FindOwned(ctx, req.TaskID, req.UserID)
	if err != nil {
		return TaskResult{}, err
	}
	if !found {
		return TaskResult{NotFound: true}, nil
	}
	return TaskResult{Task: t}, nil
}

// List returns the caller's tasks, newest first.
func (s *TaskService) List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error) {
	tasks, err := s.store.ListOwned(ctx, req.UserID)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// Update applies a partial update: fetch, patch in memory, validate and save.
// Concurrent updates of the same task are last-writer-wins.
func (s *TaskService) Update(ctx context.Context, req UpdateTaskRequest) (TaskResult, error) {
	t, found, err := s.store.FindOwned(ctx, req.TaskID, req.UserID)
	if err != nil {
		return TaskResult{}, err
	}
	if !found {
		return TaskResult{NotFound: true}, nil
	}

	statusBefore := t.Status
	changed := s.store.ApplyUpdate(t, req.Patch)

	saved, err := s.store.Persist(ctx, t)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TaskResult{NotFound: true}, nil
		}
		if result, ok := validationResult(err); ok {
			return result, nil
		}
		return TaskResult{}, err
	}

	s.publishUpdated(saved, changed, statusBefore)
	return TaskResult{Task: saved}, nil
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error) {
	deleted, err := s.store.DeleteOwned(ctx, req.TaskID, req.UserID)
	if err != nil {
		return DeleteTaskResponse{}, err
	}
	if deleted {
		s.publishDeleted(req.TaskID, req.UserID)
	}
	return DeleteTaskResponse{Deleted: deleted}, nil
}

func validationResult(err error) (TaskResult, bool) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return TaskResult{}, false
	}
	return TaskResult{ValidationErrors: ve.Fields}, true
}

// Event publishing is best-effort; failures are logged and never fail the
// operation that triggered them.

func (s *TaskService) publishCreated(t *domain.Task) {
	if s.bus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    t.ID,
		UserID:    t.OwnerID,
		Title:     t.Title,
		Priority:  string(t.Priority),
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
}

func (s *TaskService) publishUpdated(t *domain.Task, changed []string, statusBefore domain.Status) {
	if s.bus == nil {
		return
	}
	if changed == nil {
		changed = []string{}
	}
	event := events.TaskUpdatedEvent{
		TaskID:        t.ID,
		UserID:        t.OwnerID,
		Title:         t.Title,
		ChangedFields: changed,
		StatusBefore:  string(statusBefore),
		StatusAfter:   string(t.Status),
		UpdatedAt:     t.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
}

func (s *TaskService) publishDeleted(taskID, userID string) {
	if s.bus == nil {
		return
	}
	event := events.TaskDeletedEvent{
		TaskID:    taskID,
		UserID:    userID,
		DeletedAt: s.now().UTC(),
	}
	if err := events.TaskDeletedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", taskID, err)
	}
}
