package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/etlkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName identifies the embedding application.
	ServiceName string
	// ServiceVersion is the version of the embedding application.
	ServiceVersion string
	// Environment is the deployment environment (development, staging, production).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry instruments for pipeline observability.
type Metrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	recordsTotal metric.Int64Counter
	errorsTotal  metric.Int64Counter
}

// NewMetrics creates pipeline metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runsTotal, err := meter.Int64Counter("pipeline.runs.total",
		metric.WithDescription("Total number of pipeline runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.runs.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}

	recordsTotal, err := meter.Int64Counter("pipeline.records.total",
		metric.WithDescription("Total records moved, by pipeline and direction"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.records.total counter: %w", err)
	}

	errorsTotal, err := meter.Int64Counter("pipeline.errors.total",
		metric.WithDescription("Total pipeline errors by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.errors.total counter: %w", err)
	}

	return &Metrics{
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		recordsTotal: recordsTotal,
		errorsTotal:  errorsTotal,
	}, nil
}

// RecordRun records one completed pipeline run with its outcome.
func (m *Metrics) RecordRun(ctx context.Context, pipeline, status string, duration time.Duration) {
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
}

// RecordRecords adds to the record counter for one direction ("read" or "written").
func (m *Metrics) RecordRecords(ctx context.Context, pipeline, direction string, count int64) {
	m.recordsTotal.Add(ctx, count, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("direction", direction),
	))
}

// RecordError records a pipeline error by taxonomy kind.
func (m *Metrics) RecordError(ctx context.Context, pipeline, kind string) {
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("kind", kind),
	))
}
