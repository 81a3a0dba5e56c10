package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort over the task module's service container.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, ownerID string, req *CreateTaskRequest) (*domain.Task, error) {
	payload := *req
	payload.UserID = ownerID

	var result TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		&payload,
		&result,
	); err != nil {
		return nil, fmt.Errorf("create-task service call failed: %w", err)
	}
	return result.unwrap()
}

// GetTask fetches one task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: taskID, UserID: ownerID}
	var result TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&result,
	); err != nil {
		return nil, fmt.Errorf("get-task service call failed: %w", err)
	}
	return result.unwrap()
}

// ListTasks lists the owner's tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	req := ListTasksRequest{UserID: ownerID}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	if resp.Tasks == nil {
		resp.Tasks = []*domain.Task{}
	}
	return resp.Tasks, nil
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.Patch) (*domain.Task, error) {
	req := UpdateTaskRequest{TaskID: taskID, UserID: ownerID, Patch: patch}
	var result TaskResult
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&result,
	); err != nil {
		return nil, fmt.Errorf("update-task service call failed: %w", err)
	}
	return result.unwrap()
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	req := DeleteTaskRequest{TaskID: taskID, UserID: ownerID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task service call failed: %w", err)
	}
	if !resp.Deleted {
		return domain.ErrNotFound
	}
	return nil
}

// unwrap turns the outcome fields back into the domain errors.
func (r TaskResult) unwrap() (*domain.Task, error) {
	switch {
	case r.NotFound:
		return nil, domain.ErrNotFound
	case len(r.ValidationErrors) > 0:
		return nil, &domain.ValidationError{Fields: r.ValidationErrors}
	case r.Task == nil:
		return nil, fmt.Errorf("task service returned an empty result")
	}
	return r.Task, nil
}
