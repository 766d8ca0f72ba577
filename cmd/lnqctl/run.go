package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lesnouvelles-feed/internal/app"
	"lesnouvelles-feed/internal/infra/catalog"
	"lesnouvelles-feed/internal/infra/worker"
	"lesnouvelles-feed/internal/observability/logging"
)

var runCmd = &cobra.Command{
	Use:   "run [pass...]",
	Short: "Run pipeline passes once",
	Long: fmt.Sprintf(`Run pipeline passes once, in the given order, with the worker's
configuration. Without arguments every pass runs in this order:

  %s

A failing pass is reported and the next one still runs.`, strings.Join(worker.PassNames, " ")),
	ValidArgs: worker.PassNames,
	Args:      cobra.OnlyValidArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = worker.PassNames
		}
		cfg := worker.LoadConfigFromEnv(logger, nil)
		if err := cfg.Validate(); err != nil {
			return err
		}

		passes, release, err := newPasses(cmd.Context(), cfg, args)
		if err != nil {
			return err
		}
		defer release()
		return runPasses(cmd, passes, args)
	},
}

// newPasses wires the pipeline. The text-analysis provider is only loaded
// when enrich is requested.
var newPasses = func(ctx context.Context, cfg *worker.WorkerConfig, names []string) ([]worker.Pass, func(), error) {
	database, err := openDatabase(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	release := func() { _ = database.Close() }

	sources, err := catalog.New(cfg.SourcesFile)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("load sources: %w", err)
	}
	prompts, articles := app.Repositories(database)
	deps := app.Deps{
		Prompts:  prompts,
		Articles: articles,
		Catalog:  sources,
	}
	if slices.Contains(names, worker.PassEnrich) {
		analyzer, err := app.LoadAnalyzer(logger, nil)
		if err != nil {
			release()
			return nil, nil, err
		}
		deps.Analyzer = analyzer
	}
	if slices.Contains(names, worker.PassIngest) {
		deps.Content = app.LoadContentFetcher(logger, nil)
	}
	return app.NewPipeline(deps, cfg).Passes(cfg), release, nil
}

// runPasses runs the named passes sequentially and reports each one.
func runPasses(cmd *cobra.Command, passes []worker.Pass, names []string) error {
	byName := make(map[string]worker.Pass, len(passes))
	for _, p := range passes {
		byName[p.Name] = p
	}

	var failed []string
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %s", worker.ErrUnknownPass, name)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), p.Timeout)
		ctx, l := logging.WithRun(ctx, logger, p.Name)
		start := time.Now()
		n, err := p.Run(ctx)
		cancel()
		if err != nil {
			l.Error("pass failed", logging.Err(err))
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s failed  %v\n", name, err)
			failed = append(failed, name)
			if cmd.Context().Err() != nil {
				break
			}
			continue
		}
		l.Debug("pass completed", slog.Int("items", n))
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s ok      %d items in %s\n", name, n, time.Since(start).Round(time.Millisecond))
	}
	if len(failed) > 0 {
		return fmt.Errorf("passes failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
