package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted after a task is stored.
type TaskCreatedEvent struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskUpdatedEvent is emitted after an update is persisted. ChangedFields is
// empty when the update carried only no-op values.
type TaskUpdatedEvent struct {
	TaskID        string    `json:"task_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	ChangedFields []string  `json:"changed_fields"`
	StatusBefore  string    `json:"status_before"`
	StatusAfter   string    `json:"status_after"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Completed reports whether the update moved the task to completed.
func (e TaskUpdatedEvent) Completed() bool {
	return e.StatusBefore != e.StatusAfter && e.StatusAfter == "completed"
}

// TaskUpdatedV1 is the typed event definition for task updates.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
	"task", "TaskUpdated", "v1",
)

// TaskDeletedEvent is emitted when a task is deleted.
type TaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
