// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON output for the worker, text output for the CLI
//   - Per-run loggers carrying the pass name and a run id
//   - Secret masking for provider and database errors
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx, log := logging.WithRun(ctx, logger, "enrich")
//	log.Info("pass started")
//	if err != nil {
//	    logging.FromContext(ctx).Warn("item failed", logging.Err(err))
//	}
package logging
