package config

import (
	"fmt"
	"math"

	"go.uber.org/zap/zapcore"
)

const (
	// DefaultThresholdGB is roughly 5MB, low enough that most hosts produce alerts
	DefaultThresholdGB = 0.0049

	// DefaultLogFile is created in the working directory
	DefaultLogFile = "high_memory_processes_python.log"

	DefaultLogLevel = "warn"

	// BytesPerGB is the divisor used both for the threshold and for rendering
	BytesPerGB = 1024 * 1024 * 1024
)

// Config holds everything a single scan needs
type Config struct {
	// ThresholdGB is compared against resident memory in GiB (1024^3 bytes)
	ThresholdGB float64 `mapstructure:"threshold_gb" yaml:"threshold_gb" json:"threshold_gb"`

	// LogFile receives alert lines in append mode
	LogFile string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`

	// LogLevel controls diagnostic logging on stderr, not alert output
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		ThresholdGB: DefaultThresholdGB,
		LogFile:     DefaultLogFile,
		LogLevel:    DefaultLogLevel,
	}
}

// ThresholdBytes converts the threshold to bytes
func (c *Config) ThresholdBytes() float64 {
	return c.ThresholdGB * BytesPerGB
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if math.IsNaN(c.ThresholdGB) || math.IsInf(c.ThresholdGB, 0) {
		return NewValidationError("threshold_gb",
			fmt.Sprintf("threshold must be a finite number, got %v", c.ThresholdGB),
			"set threshold_gb to a positive number of gigabytes, e.g. 0.5")
	}
	if c.ThresholdGB <= 0 {
		return NewValidationError("threshold_gb",
			fmt.Sprintf("threshold must be greater than 0, got %v", c.ThresholdGB),
			"set threshold_gb to a positive number of gigabytes, e.g. 0.5")
	}
	if c.LogFile == "" {
		return NewValidationError("log_file",
			"log file path cannot be empty",
			fmt.Sprintf("omit log_file to use %q", DefaultLogFile))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return NewValidationError("log_level",
			fmt.Sprintf("invalid log level %q", c.LogLevel),
			"use one of debug, info, warn, error")
	}
	return nil
}
