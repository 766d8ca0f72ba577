// Package retry retries transient feed, page and provider failures with
// exponential backoff and jitter inside a single pass. Anything still
// failing afterwards is left for the next scheduled pass.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"lesnouvelles-feed/internal/observability/logging"
)

// Config bounds the attempts made by Do.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFraction adds up to this fraction of the delay, in [0, 1].
	JitterFraction float64
}

// DefaultConfig makes three attempts starting one second apart.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// FeedFetchConfig is used for ingested and frontpage RSS feeds.
func FeedFetchConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 4
	cfg.MaxDelay = 15 * time.Second
	return cfg
}

// TextAnalysisConfig is used for NER and embedding providers. Failed items
// are retried again by later enrich passes, so one retry is enough here.
func TextAnalysisConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.InitialDelay = 2 * time.Second
	cfg.MaxDelay = 10 * time.Second
	return cfg
}

// PageFetchConfig is used for article pages and banner images.
func PageFetchConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.InitialDelay = 500 * time.Millisecond
	cfg.MaxDelay = 5 * time.Second
	return cfg
}

// backoff returns the wait after the given failed attempt (1-based).
func (c Config) backoff(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return addJitter(time.Duration(d), c.JitterFraction)
}

// Do calls fn until it succeeds, returns an error IsRetryable rejects, or
// MaxAttempts is reached. A cancelled ctx stops the wait between attempts.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	logger := logging.FromContext(ctx)

	var err error
	for attempt := 1; ; attempt++ {
		var v T
		v, err = fn()
		if err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt >= cfg.MaxAttempts {
			return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		wait := cfg.backoff(attempt)
		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", wait),
			logging.Err(err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
}

var retryableErrnos = []syscall.Errno{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ETIMEDOUT,
	syscall.ENETUNREACH,
}

// IsRetryable reports whether err looks transient: network timeouts,
// refused or reset connections, 5xx, 408 and 429. Context errors never are.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range retryableErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 500 && code < 600 ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	}
	return false
}

// HTTPError is a non-2xx response from a feed, page or provider.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1)
	// #nosec G404 -- jitter does not need cryptographic randomness
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
