package task

import (
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status represents the state of a task. Tasks move freely between
// pending and completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Task is a user's to-do item. JSON names match the wire format the
// single-page frontend consumes.
type Task struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

// Fields holds the values for a new task, as received from a caller.
type Fields struct {
	OwnerID     string
	Title       string
	Description *string
	Priority    Priority
	DueDate     string
	Status      Status
}

// Patch is a partial update. A nil field means "no change".
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Status      *Status   `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil && p.Status == nil
}

// New builds an unsaved task from fields, normalizing text and parsing the
// due date. It does not validate; see Validate.
func New(f Fields) *Task {
	t := &Task{
		OwnerID:     f.OwnerID,
		Title:       strings.TrimSpace(f.Title),
		Description: normalizeDescription(f.Description),
		Priority:    f.Priority,
		Status:      f.Status,
	}
	if due, ok := ParseDueDate(f.DueDate); ok {
		t.DueDate = due
	}
	return t
}

// Apply overwrites the fields present in p, using the update rules:
//
//   - title is trimmed and ignored when it trims to empty
//   - description is trimmed and cleared when it trims to empty
//   - priority and status are replaced as given (checked by Validate)
//   - dueDate is ignored when it cannot be parsed
//
// Apply returns the names of the fields whose stored value changed.
func (t *Task) Apply(p Patch) []string {
	var changed []string

	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			if title != t.Title {
				changed = append(changed, "title")
			}
			t.Title = title
		}
	}
	if p.Description != nil {
		desc := normalizeDescription(p.Description)
		if !sameDescription(desc, t.Description) {
			changed = append(changed, "description")
		}
		t.Description = desc
	}
	if p.Priority != nil {
		if *p.Priority != t.Priority {
			changed = append(changed, "priority")
		}
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		if due, ok := ParseDueDate(*p.DueDate); ok {
			if !due.Equal(t.DueDate) {
				changed = append(changed, "dueDate")
			}
			t.DueDate = due
		}
	}
	if p.Status != nil {
		if *p.Status != t.Status {
			changed = append(changed, "status")
		}
		t.Status = *p.Status
	}

	return changed
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameDescription(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
