package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	DatabaseDriver     string
	DatabaseURL        string
	MigrationsURL      string
	ServerAddr         string
	LogLevel           slog.Level
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads the configuration from the environment, after loading a .env file when there is one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		DatabaseDriver:  getenv("DATABASE_DRIVER", DriverSQLite),
		ServerAddr:      getenv("SERVER_ADDR", ":8080"),
		ShutdownTimeout: 15 * time.Second,
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		cfg.DatabaseURL = getenv("DATABASE_URL", "league_stages.db?_journal_mode=WAL&_foreign_keys=on")
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	cfg.MigrationsURL = getenv("MIGRATIONS_URL", "file://migrations/"+cfg.DatabaseDriver)

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", timeout)
		}
		cfg.ShutdownTimeout = timeout
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
