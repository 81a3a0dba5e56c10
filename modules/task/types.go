package task

import (
	"context"

	domain "github.com/example/task-manager/domain/task"
)

// CreateTaskRequest is the request for creating a task. Empty priority and
// status take their defaults.
type CreateTaskRequest struct {
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     string  `json:"due_date"`
	Status      string  `json:"status,omitempty"`
}

// GetTaskRequest is the request for getting one task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
	UserID string `json:"user_id"`
}

// ListTasksRequest is the request for listing the caller's tasks.
type ListTasksRequest struct {
	UserID string `json:"user_id"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
}

// UpdateTaskRequest is the request for a partial update.
type UpdateTaskRequest struct {
	TaskID string       `json:"task_id"`
	UserID string       `json:"user_id"`
	Patch  domain.Patch `json:"patch"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
	UserID string `json:"user_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskResult carries a task or the expected failure outcomes. Typed errors
// do not survive the service boundary, so not-found and validation failures
// travel as data and the adapter turns them back into errors.
type TaskResult struct {
	Task             *domain.Task        `json:"task,omitempty"`
	NotFound         bool                `json:"not_found,omitempty"`
	ValidationErrors []domain.FieldError `json:"validation_errors,omitempty"`
}

// TaskPort defines the task operations available to driving adapters such
// as the HTTP API. Every call is scoped to the given owner.
//
// Errors: domain.ErrNotFound when the task is absent or owned by someone
// else, *domain.ValidationError for invalid input, anything else is a
// server fault.
type TaskPort interface {
	CreateTask(ctx context.Context, ownerID string, req *CreateTaskRequest) (*domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.Patch) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}
