package api

import (
	"errors"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains the HTTP handlers. Every task handler passes the
// authenticated owner explicitly to the task port.
type Handlers struct {
	tasks     task.TaskPort
	auth      auth.AuthPort
	activity  activity.ActivityPort
	validator *Validator
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, authPort auth.AuthPort, activityPort activity.ActivityPort, validator *Validator) *Handlers {
	return &Handlers{
		tasks:     tasks,
		auth:      authPort,
		activity:  activityPort,
		validator: validator,
	}
}

// Health reports that the server is up.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Success:   true,
		Message:   "Server is running",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// Register creates an account and returns a session.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body RegisterBody
	if done, err := h.decode(c, schemaAuthRegister, &body); done {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return authError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "User registered successfully",
		Data:    session,
	})
}

// Login signs a user in.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginBody
	if done, err := h.decode(c, schemaAuthLogin, &body); done {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Message: "Login successful",
		Data:    session,
	})
}

// Me returns the caller's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims := principal(c)
	if claims == nil {
		return unauthorized(c, "Access token is required")
	}

	profile, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(Response{
				Success: false,
				Message: "User not found",
			})
		}
		return err
	}

	return c.JSON(Response{Success: true, Data: profile})
}

// CreateTask creates a task for the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	var body CreateTaskBody
	if done, err := h.decode(c, schemaTaskCreate, &body); done {
		return err
	}

	created, err := h.tasks.CreateTask(c.UserContext(), ownerID, &task.CreateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
		Status:      body.Status,
	})
	if err != nil {
		return taskValidationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Task created successfully",
		Data:    created,
	})
}

// ListTasks returns the caller's tasks, newest first.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), ownerID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return c.JSON(Response{Success: true, Data: tasks})
}

// GetTask returns one of the caller's tasks.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), ownerID, c.Params("taskId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return taskNotFound(c, false)
		}
		return err
	}

	return c.JSON(Response{Success: true, Data: t})
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	var patch UpdateTaskBody
	if done, err := h.decode(c, schemaTaskUpdate, &patch); done {
		return err
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), ownerID, c.Params("taskId"), patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return taskNotFound(c, false)
		}
		return taskValidationError(c, err)
	}

	return c.JSON(Response{
		Success: true,
		Message: "Task updated successfully",
		Data:    updated,
	})
}

// DeleteTask removes one of the caller's tasks.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.UserContext(), ownerID, c.Params("taskId")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Existing clients expect success:true on this path.
			return taskNotFound(c, true)
		}
		return err
	}

	return c.JSON(Response{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// Activity returns the caller's recent task activity, newest first.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	ownerID, err := ownerOf(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > activity.DefaultLimit {
		limit = activity.DefaultLimit
	}

	entries, err := h.activity.Recent(c.UserContext(), ownerID, limit)
	if err != nil {
		return err
	}

	return c.JSON(Response{Success: true, Data: entries})
}

// NotFound answers any unmatched route.
func (h *Handlers) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(Response{
		Success: false,
		Message: "Route not found",
	})
}

// decode validates the body against a schema and decodes it into dst. When
// done is true the response has been written (or an error is returned) and
// the handler must stop.
func (h *Handlers) decode(c *fiber.Ctx, schema string, dst any) (done bool, err error) {
	fieldErrs, err := h.validator.Decode(schema, c.Body(), dst)
	if errors.Is(err, errInvalidBody) {
		return true, c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Invalid request body",
		})
	}
	if err != nil {
		return true, err
	}
	if len(fieldErrs) > 0 {
		return true, c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Validation error",
			Errors:  fieldErrs,
		})
	}
	return false, nil
}

func ownerOf(c *fiber.Ctx) (string, error) {
	claims := principal(c)
	if claims == nil || claims.UserID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Access token is required")
	}
	return claims.UserID, nil
}

func taskNotFound(c *fiber.Ctx, success bool) error {
	return c.Status(fiber.StatusNotFound).JSON(Response{
		Success: success,
		Message: "Task not found",
	})
}

// taskValidationError answers 400 for a validation failure and passes every
// other error on to the error handler.
func taskValidationError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return c.Status(fiber.StatusBadRequest).JSON(Response{
		Success: false,
		Message: "Validation error",
		Error:   ve.Error(),
		Errors:  fieldErrorsFrom(ve),
	})
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(Response{
			Success: false,
			Message: "User already exists with this email",
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(Response{
			Success: false,
			Message: "Invalid email or password",
		})
	case errors.Is(err, auth.ErrInvalidName),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Validation error",
			Error:   err.Error(),
		})
	}
	return err
}
