package config

import (
	"fmt"

	"github.com/kbukum/etlkit/logger"
	"github.com/kbukum/etlkit/observability"
)

// Config contains the configuration for an application embedding etlkit.
// Projects needing more sections embed it in their own struct:
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Warehouse     WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
//	}
type Config struct {
	Name         string               `yaml:"name" mapstructure:"name"`
	Environment  string               `yaml:"environment" mapstructure:"environment"`
	Version      string               `yaml:"version" mapstructure:"version"`
	Debug        bool                 `yaml:"debug" mapstructure:"debug"`
	Logging      logger.Config        `yaml:"logging" mapstructure:"logging"`
	Telemetry    observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	PipelineDirs []string             `yaml:"pipeline_dirs" mapstructure:"pipeline_dirs"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = "0.0.0"
	}
	if len(c.PipelineDirs) == 0 {
		c.PipelineDirs = []string{"./pipelines"}
	}
	if c.Logging.Level == "" && c.Debug {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}
