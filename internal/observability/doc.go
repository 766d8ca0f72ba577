// Package observability groups the ambient instrumentation of the worker.
//
// Subpackages:
//   - logging: slog JSON logger, context propagation and error masking
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry spans for passes and items
package observability
