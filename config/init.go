package config

import (
	"context"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/logger"
	"github.com/kbukum/etlkit/observability"
)

// Init applies defaults, validates cfg, and installs the global logger
// and (when enabled) OpenTelemetry providers. It returns a shutdown
// function that flushes telemetry exporters; the function is non-nil
// even when telemetry is disabled.
func Init(ctx context.Context, cfg *Config) (func(context.Context) error, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Config("invalid configuration").WithCause(err)
	}

	logger.Init(cfg.Logging)
	logger.RegisterDefaults("pipeline", "source", "sink", "transform")

	var shutdowns []func(context.Context) error

	if cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Telemetry.TracerConfig(cfg.Name, cfg.Version, cfg.Environment))
		if err != nil {
			return nil, errors.Config("initializing tracer").WithCause(err)
		}
		shutdowns = append(shutdowns, tp.Shutdown)

		mc := cfg.Telemetry.MeterConfig(cfg.Name, cfg.Version, cfg.Environment)
		mp, err := observability.InitMeter(ctx, &mc)
		if err != nil {
			return nil, errors.Config("initializing meter").WithCause(err)
		}
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	shutdown := func(ctx context.Context) error {
		var firstErr error
		// Shut down in reverse init order.
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return shutdown, nil
}
