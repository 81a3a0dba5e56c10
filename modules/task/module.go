package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage drivers accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config selects and configures the task storage backend.
type Config struct {
	Driver        string
	SQLitePath    string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	DBDebug       bool
}

// TaskModule owns task storage and exposes the task request handler as
// mono services.
type TaskModule struct {
	cfg      Config
	backend  domain.Backend
	service  *TaskService
	eventBus mono.EventBus
}

var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a TaskModule whose backend is opened on Start.
func NewModule(cfg Config) *TaskModule {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "tasks.db"
	}
	return &TaskModule{cfg: cfg}
}

// NewModuleWithBackend creates a TaskModule over an already opened backend.
func NewModuleWithBackend(backend domain.Backend) *TaskModule {
	return &TaskModule{
		cfg:     Config{Driver: "injected"},
		backend: backend,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	if m.service != nil {
		m.service.SetEventBus(bus)
	}
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// Health reports whether the storage backend is reachable.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.backend == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}
	if err := m.backend.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("storage ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Driver,
		},
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, list-tasks, update-task, delete-task")
	return nil
}

// Start opens the configured backend and builds the service layer.
func (m *TaskModule) Start(ctx context.Context) error {
	if m.backend == nil {
		backend, err := openBackend(ctx, m.cfg)
		if err != nil {
			return err
		}
		m.backend = backend
	}

	m.service = NewTaskService(domain.NewStore(m.backend))
	m.service.SetEventBus(m.eventBus)

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (store: %s)", m.cfg.Driver)
	return nil
}

// Stop closes the backend.
func (m *TaskModule) Stop(ctx context.Context) error {
	if m.backend == nil {
		return nil
	}
	log.Println("[task] Closing task storage...")
	if err := m.backend.Close(ctx); err != nil {
		return fmt.Errorf("failed to close task storage: %w", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

func openBackend(ctx context.Context, cfg Config) (domain.Backend, error) {
	switch cfg.Driver {
	case DriverMemory:
		log.Println("[task] Using in-memory storage")
		return NewMemoryRepository(), nil

	case DriverSQLite:
		log.Printf("[task] Connecting to SQLite database: %s", cfg.SQLitePath)
		logLevel := logger.Silent
		if cfg.DBDebug {
			logLevel = logger.Info
		}
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return NewGormRepository(db)

	case DriverPostgres:
		log.Printf("[task] Connecting to PostgreSQL...")
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo, err := NewPostgresRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil

	case DriverMongo:
		log.Printf("[task] Connecting to MongoDB database: %s", cfg.MongoDatabase)
		return NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)

	default:
		return nil, fmt.Errorf("unknown task store driver %q", cfg.Driver)
	}
}

// Handlers delegate to the service layer.

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	return m.service.Create(ctx, req)
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResult, error) {
	return m.service.Get(ctx, req)
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	return m.service.List(ctx, req)
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	return m.service.Update(ctx, req)
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	return m.service.Delete(ctx, req)
}
