// Package tracing provides OpenTelemetry tracing integration.
//
// Every scheduled pass opens a span with StartSpan and closes it with
// EndSpan; per-item work opens child spans from the pass context. The
// worker health and metrics servers are wrapped with Middleware.
//
// No exporter is configured here. A tracer provider installed with
// otel.SetTracerProvider is picked up by the package tracer, which is how
// tests capture spans with sdk/trace/tracetest.
package tracing
