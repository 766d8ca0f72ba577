// Package worker schedules the pipeline passes and serves the worker's
// health checks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lesnouvelles-feed/internal/observability/logging"
)

// ErrUnknownPass is returned by RunNow for a name that was never added.
var ErrUnknownPass = errors.New("unknown pass")

// Pass is one schedulable unit of work. Run returns the number of items
// it handled.
type Pass struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler runs passes on their cron schedules. A pass never overlaps
// itself: a trigger arriving while the previous run is still going is
// dropped, whether it came from cron or RunNow. A panicking pass is
// recovered and logged.
type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	chain   cron.Chain
	logger  *slog.Logger
	metrics *WorkerMetrics

	mu   sync.Mutex
	jobs map[string]cron.Job
}

// NewScheduler returns a scheduler evaluating schedules in loc. Pass
// contexts derive from ctx.
func NewScheduler(ctx context.Context, loc *time.Location, logger *slog.Logger, metrics *WorkerMetrics) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		ctx:     ctx,
		cron:    cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		chain:   cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		logger:  logger,
		metrics: metrics,
		jobs:    make(map[string]cron.Job),
	}
}

// Add registers p under its schedule.
func (s *Scheduler) Add(p Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.jobs[p.Name]; dup {
		return fmt.Errorf("pass %q already added", p.Name)
	}
	job := s.chain.Then(cron.FuncJob(func() { s.run(p) }))
	if _, err := s.cron.AddJob(p.Schedule, job); err != nil {
		return fmt.Errorf("schedule %s %q: %w", p.Name, p.Schedule, err)
	}
	s.jobs[p.Name] = job
	s.logger.Info("pass scheduled",
		slog.String("pass", p.Name),
		slog.String("schedule", p.Schedule),
		slog.Duration("timeout", p.Timeout))
	return nil
}

// RunNow runs the named pass synchronously, unless it is already running.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPass, name)
	}
	job.Run()
	return nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running passes to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) run(p Pass) {
	ctx, cancel := context.WithTimeout(s.ctx, p.Timeout)
	defer cancel()
	ctx, logger := logging.WithRun(ctx, s.logger, p.Name)

	start := time.Now()
	s.metrics.RecordJobRun(p.Name, "started")
	logger.Info("pass started")

	n, err := p.Run(ctx)
	duration := time.Since(start)
	s.metrics.RecordJobDuration(p.Name, duration.Seconds())
	if err != nil {
		s.metrics.RecordJobRun(p.Name, "failure")
		logger.Error("pass failed", logging.Err(err), slog.Duration("duration", duration))
		return
	}

	s.metrics.RecordJobRun(p.Name, "success")
	s.metrics.RecordItems(p.Name, n)
	s.metrics.RecordLastSuccess(p.Name)
	logger.Info("pass completed", slog.Int("items", n), slog.Duration("duration", duration))
}

// cronLogger routes cron's own messages to slog; routine ones at debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, logging.Err(err))...)
}
