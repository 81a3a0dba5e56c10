package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	log.Println("=== Task Manager ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupSlog(cfg.Log)

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if strings.EqualFold(cfg.Log.Level, "error") {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout.Duration),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Order: independent modules first, then modules with dependencies
	modules := []mono.Module{
		auth.NewModule(auth.Config{
			DBPath: cfg.Auth.DBPath,
			JWT: auth.JWTConfig{
				SecretKey:     cfg.Auth.JWTSecret,
				TokenDuration: cfg.Auth.JWTExpires.Duration,
				Issuer:        cfg.Auth.JWTIssuer,
			},
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		activity.NewModule(activity.DefaultLimit), // Event consumer (subscribes to task events)
		task.NewModule(task.Config{
			Driver:        cfg.Store.Driver,
			SQLitePath:    cfg.Store.SQLitePath,
			DatabaseURL:   cfg.Store.DatabaseURL,
			MongoURI:      cfg.Store.MongoURI,
			MongoDatabase: cfg.Store.MongoDatabase,
		}),
		api.NewModule(api.Config{
			Port:            cfg.Server.Port,
			Prefix:          cfg.Server.Prefix,
			FrontendURL:     cfg.Server.FrontendURL,
			BodyLimit:       cfg.Server.BodyLimit,
			RateLimitMax:    cfg.RateLimit.Max,
			RateLimitWindow: cfg.RateLimit.Window.Duration,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		}),
	}
	for _, m := range modules {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout.Duration,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// setupSlog configures the structured logger used by the HTTP layer.
func setupSlog(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printStartupInfo(cfg *config.Config) {
	p := cfg.Server.Prefix
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Environment: %s", cfg.Env)
	log.Printf("Task store: %s", cfg.Store.Driver)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Server.Port)
	log.Printf("  POST   %s/auth/register      - Create an account", p)
	log.Printf("  POST   %s/auth/login         - Sign in", p)
	log.Printf("  GET    %s/auth/me            - Current user", p)
	log.Printf("  POST   %s/tasks              - Create a task", p)
	log.Printf("  GET    %s/tasks              - List your tasks", p)
	log.Printf("  GET    %s/tasks/:taskId      - Get a task", p)
	log.Printf("  PUT    %s/tasks/:taskId      - Update a task", p)
	log.Printf("  DELETE %s/tasks/:taskId      - Delete a task", p)
	log.Printf("  GET    %s/activity           - Recent task activity", p)
	log.Printf("  GET    %s/health             - Health check", p)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
