// Package config loads the service configuration.
//
// Values are resolved in priority order:
//  1. Defaults
//  2. TOML file (CONFIG_FILE or the path passed to Load)
//  3. .env file in the working directory (never overrides the real environment)
//  4. Environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Default values.
const (
	DefaultPort            = 5000
	DefaultPrefix          = "/api"
	DefaultFrontendURL     = "http://localhost:5173"
	DefaultSQLitePath      = "tasks.db"
	DefaultMongoDatabase   = "task-manager"
	DefaultAuthDBPath      = "auth.db"
	DefaultJWTSecret       = "dev-secret-change-me"
	DefaultJWTIssuer       = "task-manager"
	DefaultJWTExpiresIn    = 7 * 24 * time.Hour
	DefaultRateLimitMax    = 100
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds the full service configuration.
type Config struct {
	Env             string          `toml:"env"`
	ShutdownTimeout Duration        `toml:"shutdown_timeout"`
	Server          ServerConfig    `toml:"server"`
	Store           StoreConfig     `toml:"store"`
	Auth            AuthConfig      `toml:"auth"`
	RateLimit       RateLimitConfig `toml:"rate_limit"`
	Log             LogConfig       `toml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        int    `toml:"port"`
	Prefix      string `toml:"prefix"`
	FrontendURL string `toml:"frontend_url"`
	BodyLimit   int    `toml:"body_limit"`
}

// StoreConfig selects and configures the task store backend.
type StoreConfig struct {
	Driver        string `toml:"driver"`
	SQLitePath    string `toml:"sqlite_path"`
	DatabaseURL   string `toml:"database_url"`
	MongoURI      string `toml:"mongodb_uri"`
	MongoDatabase string `toml:"mongodb_database"`
}

// AuthConfig configures accounts and tokens.
type AuthConfig struct {
	DBPath     string   `toml:"db_path"`
	JWTSecret  string   `toml:"jwt_secret"`
	JWTIssuer  string   `toml:"jwt_issuer"`
	JWTExpires Duration `toml:"jwt_expires_in"`
	BcryptCost int      `toml:"bcrypt_cost"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Max       int      `toml:"max"`
	Window    Duration `toml:"window"`
	RedisAddr string   `toml:"redis_addr"`
}

// LogConfig configures log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration read from text such as "15m" or "7d".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDuration accepts Go durations plus a whole-day suffix ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return v, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env:             "development",
		ShutdownTimeout: Duration{DefaultShutdownTimeout},
		Server: ServerConfig{
			Port:        DefaultPort,
			Prefix:      DefaultPrefix,
			FrontendURL: DefaultFrontendURL,
			BodyLimit:   100 * 1024,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    DefaultSQLitePath,
			MongoDatabase: DefaultMongoDatabase,
		},
		Auth: AuthConfig{
			DBPath:     DefaultAuthDBPath,
			JWTSecret:  DefaultJWTSecret,
			JWTIssuer:  DefaultJWTIssuer,
			JWTExpires: Duration{DefaultJWTExpiresIn},
			BcryptCost: 12,
		},
		RateLimit: RateLimitConfig{
			Max:    DefaultRateLimitMax,
			Window: Duration{DefaultRateLimitWindow},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration. path may be empty, in which case
// CONFIG_FILE is consulted; a missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: invalid integer %q", key, v)
			}
			*dst = n
		}
		return nil
	}
	setDuration := func(key string, dst *Duration) error {
		if v := os.Getenv(key); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		return nil
	}

	setString("APP_ENV", &cfg.Env)
	setString("API_PREFIX", &cfg.Server.Prefix)
	setString("FRONTEND_URL", &cfg.Server.FrontendURL)
	setString("STORE_DRIVER", &cfg.Store.Driver)
	setString("SQLITE_PATH", &cfg.Store.SQLitePath)
	setString("DATABASE_URL", &cfg.Store.DatabaseURL)
	setString("MONGODB_URI", &cfg.Store.MongoURI)
	setString("MONGODB_DATABASE", &cfg.Store.MongoDatabase)
	setString("AUTH_DB_PATH", &cfg.Auth.DBPath)
	setString("JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("JWT_ISSUER", &cfg.Auth.JWTIssuer)
	setString("REDIS_ADDR", &cfg.RateLimit.RedisAddr)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(
		setInt("PORT", &cfg.Server.Port),
		setInt("RATE_LIMIT_MAX", &cfg.RateLimit.Max),
		setDuration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window),
		setDuration("JWT_EXPIRES_IN", &cfg.Auth.JWTExpires),
		setDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout),
	)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.Prefix, "/") {
		errs = append(errs, fmt.Errorf("api prefix %q must start with /", c.Server.Prefix))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret must not be empty"))
	}
	if c.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Auth.JWTExpires.Duration <= 0 {
		errs = append(errs, errors.New("JWT expiry must be positive"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("rate limit max must be positive"))
	}
	if c.RateLimit.Window.Duration <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
