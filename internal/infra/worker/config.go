package worker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lesnouvelles-feed/internal/pkg/config"
	"lesnouvelles-feed/internal/usecase/enrich"
	"lesnouvelles-feed/internal/usecase/score"
)

// Pass names, also used as metric labels and CLI sub-commands.
const (
	PassIngest    = "ingest"
	PassEnrich    = "enrich"
	PassScore     = "score"
	PassSimilar   = "similar"
	PassRetention = "retention"
	PassFrontpage = "frontpage"
)

// PassNames lists every pass in the order they are registered.
var PassNames = []string{PassIngest, PassEnrich, PassScore, PassSimilar, PassRetention, PassFrontpage}

// PassConfig schedules one pass.
type PassConfig struct {
	Schedule string
	Timeout  time.Duration
}

// WorkerConfig holds the worker's schedules and pass tunables. Every field
// is loaded fail-open: an invalid variable keeps the default and is
// reported through WorkerMetrics.
type WorkerConfig struct {
	// Passes maps a pass name to its schedule. Read from <NAME>_SCHEDULE
	// and <NAME>_TIMEOUT, e.g. ENRICH_SCHEDULE.
	Passes map[string]PassConfig

	// Timezone is the IANA zone cron schedules are evaluated in.
	Timezone string

	// RunOnStart triggers every pass once at startup.
	RunOnStart bool

	// ItemDelay spaces out the items of a pass.
	ItemDelay time.Duration

	EnrichBatchSize  int
	EnrichMaxRetry   int
	ScoreThreshold   float64
	SimilarThreshold float64
	ArticleCeiling   int
	// PromptMaxIdle enables prompt retention when positive.
	PromptMaxIdle     time.Duration
	IngestParallelism int

	SourcesFile string
	HealthPort  int
	MetricsPort int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Passes: map[string]PassConfig{
			PassIngest:    {Schedule: "*/15 * * * *", Timeout: 10 * time.Minute},
			PassEnrich:    {Schedule: "*/5 * * * *", Timeout: 10 * time.Minute},
			PassScore:     {Schedule: "*/10 * * * *", Timeout: 10 * time.Minute},
			PassSimilar:   {Schedule: "*/30 * * * *", Timeout: 20 * time.Minute},
			PassRetention: {Schedule: "0 4 * * *", Timeout: 10 * time.Minute},
			PassFrontpage: {Schedule: "*/20 * * * *", Timeout: 5 * time.Minute},
		},
		Timezone:          "America/Toronto",
		ItemDelay:         2 * time.Second,
		EnrichBatchSize:   enrich.DefaultBatchSize,
		EnrichMaxRetry:    enrich.DefaultMaxRetry,
		ScoreThreshold:    score.DefaultThreshold,
		SimilarThreshold:  score.DefaultThreshold,
		ArticleCeiling:    1000,
		IngestParallelism: 4,
		SourcesFile:       "sources.yaml",
		HealthPort:        9091,
		MetricsPort:       9090,
	}
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	for _, name := range PassNames {
		p, ok := c.Passes[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: not configured", name))
			continue
		}
		if err := config.ValidateCronSchedule(p.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%s schedule: %w", name, err))
		}
		if err := config.ValidatePositiveDuration(p.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("%s timeout: %w", name, err))
		}
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.ItemDelay < 0 {
		errs = append(errs, fmt.Errorf("item delay: must not be negative"))
	}
	if err := config.ValidateIntRange(c.EnrichBatchSize, 1, 500); err != nil {
		errs = append(errs, fmt.Errorf("enrich batch size: %w", err))
	}
	if err := config.ValidateIntRange(c.EnrichMaxRetry, 0, 100); err != nil {
		errs = append(errs, fmt.Errorf("enrich max retry: %w", err))
	}
	if err := config.ValidateFloatRange(c.ScoreThreshold, 0, 2); err != nil {
		errs = append(errs, fmt.Errorf("score threshold: %w", err))
	}
	if err := config.ValidateFloatRange(c.SimilarThreshold, 0, 2); err != nil {
		errs = append(errs, fmt.Errorf("similar threshold: %w", err))
	}
	if err := config.ValidateIntRange(c.ArticleCeiling, 1, 10_000_000); err != nil {
		errs = append(errs, fmt.Errorf("article ceiling: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration. It never fails: each
// invalid variable is logged, recorded in metrics and replaced by its
// default.
//
//	<PASS>_SCHEDULE      cron expression, PASS one of PassNames upper-cased
//	<PASS>_TIMEOUT       duration, 1m-4h
//	WORKER_TIMEZONE      IANA zone (America/Toronto)
//	RUN_ON_START         bool (false)
//	ITEM_DELAY           duration (2s)
//	ENRICH_BATCH_SIZE    1-500 (10)
//	ENRICH_MAX_RETRY     0-100 (3)
//	SCORE_THRESHOLD      0-2 (0.9)
//	SIMILAR_THRESHOLD    0-2 (0.9)
//	ARTICLE_CEILING      int (1000)
//	PROMPT_MAX_IDLE      duration, unset disables prompt retention
//	INGEST_PARALLELISM   1-64 (4)
//	SOURCES_FILE         path (sources.yaml)
//	WORKER_HEALTH_PORT   1024-65535 (9091)
//	METRICS_PORT         1024-65535 (9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	fallback := false
	track := func(field string, r config.ConfigLoadResult) config.ConfigLoadResult {
		if r.FallbackApplied {
			fallback = true
		}
		for _, w := range cm.Track(field, r) {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
		return r
	}

	for _, name := range PassNames {
		p := cfg.Passes[name]
		prefix := strings.ToUpper(name)
		p.Schedule = track(name+"_schedule",
			config.LoadEnvWithFallback(prefix+"_SCHEDULE", p.Schedule, config.ValidateCronSchedule)).Value.(string)
		p.Timeout = track(name+"_timeout",
			config.LoadEnvDuration(prefix+"_TIMEOUT", p.Timeout, func(d time.Duration) error {
				return config.ValidateDuration(d, time.Minute, 4*time.Hour)
			})).Value.(time.Duration)
		cfg.Passes[name] = p
	}

	cfg.Timezone = track("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).Value.(string)
	cfg.RunOnStart = track("run_on_start", config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart)).Value.(bool)
	cfg.ItemDelay = track("item_delay",
		config.LoadEnvDuration("ITEM_DELAY", cfg.ItemDelay, func(d time.Duration) error {
			return config.ValidateDuration(d, 0, time.Minute)
		})).Value.(time.Duration)
	cfg.EnrichBatchSize = track("enrich_batch_size",
		config.LoadEnvInt("ENRICH_BATCH_SIZE", cfg.EnrichBatchSize, func(v int) error {
			return config.ValidateIntRange(v, 1, 500)
		})).Value.(int)
	cfg.EnrichMaxRetry = track("enrich_max_retry",
		config.LoadEnvInt("ENRICH_MAX_RETRY", cfg.EnrichMaxRetry, func(v int) error {
			return config.ValidateIntRange(v, 0, 100)
		})).Value.(int)
	cfg.ScoreThreshold = track("score_threshold",
		config.LoadEnvFloat("SCORE_THRESHOLD", cfg.ScoreThreshold, func(v float64) error {
			return config.ValidateFloatRange(v, 0, 2)
		})).Value.(float64)
	cfg.SimilarThreshold = track("similar_threshold",
		config.LoadEnvFloat("SIMILAR_THRESHOLD", cfg.SimilarThreshold, func(v float64) error {
			return config.ValidateFloatRange(v, 0, 2)
		})).Value.(float64)
	cfg.ArticleCeiling = track("article_ceiling",
		config.LoadEnvInt("ARTICLE_CEILING", cfg.ArticleCeiling, func(v int) error {
			return config.ValidateIntRange(v, 1, 10_000_000)
		})).Value.(int)
	cfg.PromptMaxIdle = track("prompt_max_idle",
		config.LoadEnvDuration("PROMPT_MAX_IDLE", cfg.PromptMaxIdle, config.ValidatePositiveDuration)).Value.(time.Duration)
	cfg.IngestParallelism = track("ingest_parallelism",
		config.LoadEnvInt("INGEST_PARALLELISM", cfg.IngestParallelism, func(v int) error {
			return config.ValidateIntRange(v, 1, 64)
		})).Value.(int)
	cfg.SourcesFile = config.LoadEnvString("SOURCES_FILE", cfg.SourcesFile)
	cfg.HealthPort = track("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)
	cfg.MetricsPort = track("metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)

	if cm != nil {
		cm.SetFallbackActive("", fallback)
		cm.RecordLoadTimestamp()
	}
	return &cfg
}
