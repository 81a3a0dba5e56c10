package api

import domain "github.com/example/task-manager/domain/task"

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// CreateTaskBody is the body of a task creation request.
type CreateTaskBody struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"dueDate"`
	Status      string  `json:"status"`
}

// UpdateTaskBody is the body of a partial update. Absent keys stay nil.
type UpdateTaskBody = domain.Patch

// RegisterBody is the body of a registration request.
type RegisterBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginBody is the body of a login request.
type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func fieldErrorsFrom(ve *domain.ValidationError) []FieldError {
	out := make([]FieldError, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, FieldError{Field: f.Field, Message: f.Message})
	}
	return out
}
