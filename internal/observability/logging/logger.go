// Package logging provides structured logging utilities using the standard library's log/slog package.
// It offers helper functions for creating loggers with consistent configuration and context propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// levelFromEnv maps LOG_LEVEL (debug, info, warn, error) to a slog level.
// Unknown values fall back to info.
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger with JSON output on stdout.
// The log level is controlled via the LOG_LEVEL environment variable.
func NewLogger() *slog.Logger {
	return newJSONLogger(os.Stdout, levelFromEnv())
}

func newJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// source location only when verbose
		AddSource: level <= slog.LevelDebug,
	}))
}

// NewTextLogger creates a logger with human-readable text output on stderr,
// used by the operator CLI.
func NewTextLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

// WithRun tags logger with the pass name and a fresh run id and stores it in
// ctx. Everything logged through FromContext(ctx) during that run carries
// both attributes.
func WithRun(ctx context.Context, logger *slog.Logger, pass string) (context.Context, *slog.Logger) {
	l := logger.With(slog.String("pass", pass), slog.String("run_id", uuid.NewString()))
	return WithLogger(ctx, l), l
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
