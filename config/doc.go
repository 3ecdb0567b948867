// Package config provides configuration loading and bootstrap for
// applications embedding etlkit.
//
// It uses Viper to load a YAML configuration file, godotenv for .env
// files, and environment variables for overrides. Init installs the
// global logger and, when enabled, OpenTelemetry providers from the
// loaded configuration.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("etl", &cfg); err != nil { ... }
//
//	shutdown, err := config.Init(ctx, &cfg)
//	defer shutdown(ctx)
//
// Environment variables override file values using underscore-separated
// paths (e.g., LOGGING_LEVEL overrides logging.level).
package config
