// Package circuitbreaker guards calls to feeds, article pages and text
// analysis providers with github.com/sony/gobreaker. Once a dependency
// trips, the remaining items of a pass fail fast instead of each waiting
// out their own timeout.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes when a breaker opens and how it recovers.
type Config struct {
	Name string

	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counters. Zero keeps them forever.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// The breaker opens once at least MinRequests calls were counted and
	// the failure ratio reached FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig suits a single external dependency called a few times per
// pass.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// TextAnalysisConfig is used per NER or embedding provider. Providers
// rate-limit for minutes at a time, so the open period is longer.
func TextAnalysisConfig(provider string) Config {
	cfg := DefaultConfig("text-analysis-" + provider)
	cfg.Timeout = 2 * time.Minute
	return cfg
}

// FeedFetchConfig is shared by every RSS source. A few dead feeds are
// normal, so it only trips when most of them fail.
func FeedFetchConfig() Config {
	cfg := DefaultConfig("feed-fetch")
	cfg.MaxRequests = 5
	cfg.Interval = time.Minute
	cfg.Timeout = 2 * time.Minute
	cfg.FailureThreshold = 0.7
	cfg.MinRequests = 10
	return cfg
}

// PageFetchConfig covers article pages: open-graph metadata, readable text
// and banner source images.
func PageFetchConfig() Config {
	cfg := DefaultConfig("page-fetch")
	cfg.Interval = time.Minute
	cfg.Timeout = 5 * time.Minute
	cfg.FailureThreshold = 0.8
	cfg.MinRequests = 10
	return cfg
}

func (c Config) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureThreshold
}

// CircuitBreaker is a named gobreaker breaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a breaker. State changes are logged at warn level.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: cfg.readyToTrip,
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Run calls fn through the breaker. While open it returns
// gobreaker.ErrOpenState without calling fn.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.breaker.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

// IsOpen reports whether calls are currently being rejected.
func (cb *CircuitBreaker) IsOpen() bool { return cb.State() == gobreaker.StateOpen }
