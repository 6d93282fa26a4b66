package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the rewriting engine configuration.
type Config struct {
	// LogLevel controls the engine logger: debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// MetricsEnabled turns prometheus instrumentation on.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MaxCloneCount caps the multiplicity of a single clone request.
	MaxCloneCount int `yaml:"max_clone_count" validate:"min=1"`

	// MaxBatchSize caps the number of items in one batch clone/merge.
	MaxBatchSize int `yaml:"max_batch_size" validate:"min=1"`

	// MatchBuffer sizes the instance stream buffer of the matcher.
	MatchBuffer int `yaml:"match_buffer" validate:"min=1"`
}

var validate = validator.New()

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		LogLevel:       "info",
		MetricsEnabled: true,
		MaxCloneCount:  1000,
		MaxBatchSize:   1000,
		MatchBuffer:    100,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
