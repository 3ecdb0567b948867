// Package observability provides OpenTelemetry tracing and metrics for
// etlkit pipelines.
//
// InitTracer and InitMeter install global OTLP HTTP providers; both are
// optional and everything degrades to no-ops when they are not called.
// The pipeline driver opens one span per run and records run, record,
// and error counters through the Metrics instrument set.
//
// # Usage
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("etlkit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
//	defer span.End()
package observability
