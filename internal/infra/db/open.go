package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lesnouvelles-feed/internal/pkg/config"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates a pgx-backed pool for dsn, applies the DB_* pool settings and
// verifies the connection with a bounded ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg, warnings := getConnectionConfigFromEnv()
	for _, w := range warnings {
		slog.Warn("database pool configuration fallback", slog.String("warning", w))
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func positiveInt(v int) error {
	if v <= 0 {
		return fmt.Errorf("value must be positive, got %d", v)
	}
	return nil
}

// getConnectionConfigFromEnv reads the pool settings, falling back per field.
func getConnectionConfigFromEnv() (ConnectionConfig, []string) {
	def := DefaultConnectionConfig()
	var warnings []string

	maxOpen := config.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positiveInt)
	maxIdle := config.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positiveInt)
	lifetime := config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration)
	idleTime := config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration)
	for _, r := range []config.ConfigLoadResult{maxOpen, maxIdle, lifetime, idleTime} {
		warnings = append(warnings, r.Warnings...)
	}

	return ConnectionConfig{
		MaxOpenConns:    maxOpen.Value.(int),
		MaxIdleConns:    maxIdle.Value.(int),
		ConnMaxLifetime: lifetime.Value.(time.Duration),
		ConnMaxIdleTime: idleTime.Value.(time.Duration),
	}, warnings
}
