package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
)

// Config configures the HTTP surface.
type Config struct {
	Port            int
	Prefix          string
	FrontendURL     string
	BodyLimit       int
	RateLimitMax    int
	RateLimitWindow time.Duration
	// RedisAddr switches rate-limit counters to Redis when set.
	RedisAddr string
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg      Config
	app      *fiber.App
	storage  fiber.Storage
	tasks    task.TaskPort
	auth     auth.AuthPort
	activity activity.ActivityPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg Config) *APIModule {
	return &APIModule{cfg: withDefaults(cfg)}
}

func withDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/api"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 100 * 1024
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = 15 * time.Minute
	}
	return cfg
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task", "auth", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	case "activity":
		m.activity = activity.NewActivityAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.tasks == nil || m.auth == nil || m.activity == nil {
		return fmt.Errorf("task, auth and activity dependencies must be set")
	}

	validator, err := NewValidator()
	if err != nil {
		return err
	}

	if m.cfg.RedisAddr != "" {
		storage, err := newRedisStorage(m.cfg.RedisAddr)
		if err != nil {
			return err
		}
		m.storage = storage
	}

	handlers := NewHandlers(m.tasks, m.auth, m.activity, validator)
	m.app = newApp(m.cfg, handlers, m.storage)

	addr := fmt.Sprintf(":%d", m.cfg.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s (prefix %s)", addr, m.cfg.Prefix)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	err := m.app.Shutdown()
	if m.storage != nil {
		if closeErr := m.storage.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	limiterStore := "memory"
	if m.storage != nil {
		limiterStore = "redis"
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":          m.cfg.Port,
			"prefix":        m.cfg.Prefix,
			"rate_limiter":  limiterStore,
			"rate_limit":    m.cfg.RateLimitMax,
			"rate_window_s": int(m.cfg.RateLimitWindow.Seconds()),
		},
	}
}

// newApp builds the Fiber application. A nil storage keeps rate-limit
// counters in memory.
func newApp(cfg Config, h *Handlers, storage fiber.Storage) *fiber.App {
	cfg = withDefaults(cfg)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: cfg.FrontendURL != "*",
	}))

	healthPath := cfg.Prefix + "/health"
	app.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == healthPath
		},
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			slog.Warn("Rate limit exceeded",
				"ip", c.IP(),
				"path", c.Path(),
				"limit", cfg.RateLimitMax)
			return c.Status(fiber.StatusTooManyRequests).JSON(Response{
				Success: false,
				Message: "Too many requests, please try again later",
			})
		},
		Storage: storage,
	}))

	setupRoutes(app, cfg.Prefix, h)
	return app
}

// setupRoutes configures all API routes.
func setupRoutes(app *fiber.App, prefix string, h *Handlers) {
	guard := AuthMiddleware(h.auth)

	api := app.Group(prefix)
	api.Get("/health", h.Health)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Get("/me", guard, h.Me)

	api.Post("/tasks", guard, h.CreateTask)
	api.Get("/tasks", guard, h.ListTasks)
	api.Get("/tasks/:taskId", guard, h.GetTask)
	api.Put("/tasks/:taskId", guard, h.UpdateTask)
	api.Delete("/tasks/:taskId", guard, h.DeleteTask)

	api.Get("/activity", guard, h.Activity)

	app.Use(h.NotFound)
}

// customErrorHandler is the last-resort error boundary. Fiber errors keep
// their status; anything else is logged and answered with a 500.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.Error("Unhandled request error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err)
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Message: message,
	})
}

// newRedisStorage connects the rate-limit storage. redis.New panics when
// the server is unreachable, so the address is dialed first.
func newRedisStorage(addr string) (fiber.Storage, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis port %q: %w", portStr, err)
	}

	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	_ = conn.Close()

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 10,
	})
	log.Printf("[api] Rate limiter using Redis at %s", addr)
	return storage, nil
}
