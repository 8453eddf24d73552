// Package config handles baking configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Config holds all baking settings.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds sample budget and scheduling settings.
type SamplingConfig struct {
	// NumSamples is the total sample budget. Zero selects the smallest
	// valid budget, one floor of samples per triangle.
	NumSamples int `yaml:"num_samples"`
	// MinSamplesPerTriangle guarantees coverage of small triangles.
	MinSamplesPerTriangle int `yaml:"min_samples_per_triangle"`
	// Workers bounds sampling goroutines. Zero uses all CPUs.
	Workers int `yaml:"workers"`
}

// OutputConfig holds result destination settings.
type OutputConfig struct {
	Path         string `yaml:"path"`          // sample dump destination, empty = no dump
	PrintSamples bool   `yaml:"print_samples"` // list every sample on stdout
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			NumSamples:            0,
			MinSamplesPerTriangle: 3,
			Workers:               0,
		},
		Output: OutputConfig{
			Path:         "",
			PrintSamples: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every configuration value the sampler would reject.
func (c *Config) Validate() error {
	var errs error
	if c.Sampling.NumSamples < 0 {
		errs = multierr.Append(errs,
			fmt.Errorf("sampling.num_samples must not be negative, got %d", c.Sampling.NumSamples))
	}
	if c.Sampling.MinSamplesPerTriangle < 1 {
		errs = multierr.Append(errs,
			fmt.Errorf("sampling.min_samples_per_triangle must be at least 1, got %d", c.Sampling.MinSamplesPerTriangle))
	}
	if c.Sampling.Workers < 0 {
		errs = multierr.Append(errs,
			fmt.Errorf("sampling.workers must not be negative, got %d", c.Sampling.Workers))
	}
	return errs
}
