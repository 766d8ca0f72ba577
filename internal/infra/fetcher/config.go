package fetcher

import (
	"fmt"
	"time"

	"lesnouvelles-feed/internal/pkg/config"
)

// ContentFetchConfig controls readable-text extraction.
type ContentFetchConfig struct {
	// Enabled false disables description backfill entirely.
	Enabled bool

	// Threshold is the description length, in characters, under which the
	// article page is fetched.
	Threshold int

	// Timeout bounds a single page request.
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64

	// MaxRedirects is checked before each redirect target is validated.
	MaxRedirects int

	// DenyPrivateIPs rejects hosts resolving to private networks. Tests
	// against httptest servers turn it off.
	DenyPrivateIPs bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        true,
		Threshold:      160,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks that the values are usable.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads the CONTENT_FETCH_* variables. Invalid values
// fall back to DefaultConfig; the returned warnings describe each fallback.
//
//	CONTENT_FETCH_ENABLED           bool     (true)
//	CONTENT_FETCH_THRESHOLD         int      (160)
//	CONTENT_FETCH_TIMEOUT           duration (10s)
//	CONTENT_FETCH_MAX_BODY_SIZE     int      (10485760)
//	CONTENT_FETCH_MAX_REDIRECTS     int      (5)
//	CONTENT_FETCH_DENY_PRIVATE_IPS  bool     (true)
func LoadConfigFromEnv(m *config.ConfigMetrics) (ContentFetchConfig, []string) {
	cfg := DefaultConfig()
	var warnings []string

	r := config.LoadEnvBool("CONTENT_FETCH_ENABLED", cfg.Enabled)
	warnings = append(warnings, m.Track("content_fetch_enabled", r)...)
	cfg.Enabled = r.Value.(bool)

	r = config.LoadEnvInt("CONTENT_FETCH_THRESHOLD", cfg.Threshold, func(v int) error {
		return config.ValidateIntRange(v, 0, 100000)
	})
	warnings = append(warnings, m.Track("content_fetch_threshold", r)...)
	cfg.Threshold = r.Value.(int)

	r = config.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 2*time.Minute)
	})
	warnings = append(warnings, m.Track("content_fetch_timeout", r)...)
	cfg.Timeout = r.Value.(time.Duration)

	r = config.LoadEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize), func(v int) error {
		return config.ValidateIntRange(v, 1024, 100*1024*1024)
	})
	warnings = append(warnings, m.Track("content_fetch_max_body_size", r)...)
	cfg.MaxBodySize = int64(r.Value.(int))

	r = config.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	})
	warnings = append(warnings, m.Track("content_fetch_max_redirects", r)...)
	cfg.MaxRedirects = r.Value.(int)

	r = config.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	warnings = append(warnings, m.Track("content_fetch_deny_private_ips", r)...)
	cfg.DenyPrivateIPs = r.Value.(bool)

	return cfg, warnings
}
