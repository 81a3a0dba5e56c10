package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNotFound is returned when a task does not exist or belongs to another owner.
var ErrNotFound = errors.New("task not found")

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a task violates its invariants.
// It is always a client input problem, never a server fault.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "task validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the full current state of t. It returns a *ValidationError
// listing every violated invariant, or nil.
func (t *Task) Validate() error {
	ve := &ValidationError{}

	if t.OwnerID == "" {
		ve.add("userId", "User ID is required")
	}

	switch {
	case t.Title == "":
		ve.add("title", "Task title is required")
	case t.Title != strings.TrimSpace(t.Title):
		ve.add("title", "Title cannot have surrounding whitespace")
	case utf8.RuneCountInString(t.Title) > MaxTitleLength:
		ve.add("title", fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength))
	}

	if t.Description != nil {
		switch {
		case *t.Description == "":
			ve.add("description", "Description cannot be empty when present")
		case utf8.RuneCountInString(*t.Description) > MaxDescriptionLength:
			ve.add("description", fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength))
		}
	}

	if !t.Priority.Valid() {
		ve.add("priority", enumMessage(string(t.Priority), "priority"))
	}
	if t.DueDate.IsZero() {
		ve.add("dueDate", "Due date is required")
	}
	if !t.Status.Valid() {
		ve.add("status", enumMessage(string(t.Status), "status"))
	}

	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// Build creates and validates a new task from f. Unlike Apply, malformed
// required input is rejected rather than ignored.
func Build(f Fields) (*Task, error) {
	t := New(f)
	err := t.Validate()
	if err == nil {
		return t, nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) && strings.TrimSpace(f.DueDate) != "" {
		for i := range ve.Fields {
			if ve.Fields[i].Field == "dueDate" {
				ve.Fields[i].Message = fmt.Sprintf("Cast to date failed for value %q", f.DueDate)
			}
		}
	}
	return nil, err
}

func enumMessage(value, path string) string {
	return fmt.Sprintf("`%s` is not a valid enum value for path `%s`", value, path)
}

// dueDateLayouts are tried in order. Inputs without a zone are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate parses a due date as sent by clients: an ISO-8601 date or
// date-time. The result is UTC at millisecond precision. ok is false when
// s is empty or not a date.
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}
