package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.0049, cfg.ThresholdGB)
	assert.Equal(t, "high_memory_processes_python.log", cfg.LogFile)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestThresholdBytes(t *testing.T) {
	cfg := &Config{ThresholdGB: 5}
	assert.Equal(t, float64(5*1024*1024*1024), cfg.ThresholdBytes())

	cfg.ThresholdGB = 0.0049
	assert.InDelta(t, 5261334.937, cfg.ThresholdBytes(), 0.001)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		field    string
		errorMsg string
	}{
		{
			name:     "Zero threshold",
			modify:   func(c *Config) { c.ThresholdGB = 0 },
			field:    "threshold_gb",
			errorMsg: "greater than 0",
		},
		{
			name:     "Negative threshold",
			modify:   func(c *Config) { c.ThresholdGB = -1 },
			field:    "threshold_gb",
			errorMsg: "greater than 0",
		},
		{
			name:     "NaN threshold",
			modify:   func(c *Config) { c.ThresholdGB = math.NaN() },
			field:    "threshold_gb",
			errorMsg: "finite",
		},
		{
			name:     "Infinite threshold",
			modify:   func(c *Config) { c.ThresholdGB = math.Inf(1) },
			field:    "threshold_gb",
			errorMsg: "finite",
		},
		{
			name:     "Empty log file",
			modify:   func(c *Config) { c.LogFile = "" },
			field:    "log_file",
			errorMsg: "cannot be empty",
		},
		{
			name:     "Bad log level",
			modify:   func(c *Config) { c.LogLevel = "loud" },
			field:    "log_level",
			errorMsg: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.NotEmpty(t, verr.Suggestion)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold_gb: 2.5\nlog_file: /tmp/alerts.log\n"), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.ThresholdGB)
	assert.Equal(t, "/tmp/alerts.log", cfg.LogFile)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoadDiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memwatch.yaml"), []byte("threshold_gb: 1\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.ThresholdGB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold_gb: 2.5\n"), 0o644))
	t.Setenv("MEMWATCH_THRESHOLD_GB", "7")
	t.Setenv("MEMWATCH_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.ThresholdGB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEMWATCH_THRESHOLD_GB", "-3")

	_, err := Load(viper.New(), "")
	require.Error(t, err)

	var verr ValidationError
	assert.ErrorAs(t, err, &verr)
}
