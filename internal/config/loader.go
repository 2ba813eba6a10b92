package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. MEMWATCH_THRESHOLD_GB
	EnvPrefix = "MEMWATCH"

	configName = "memwatch"
)

// SetDefaults registers the default values on v
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("threshold_gb", def.ThresholdGB)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
}

// Load builds a Config from defaults, an optional config file and the environment.
// An explicit configFile must exist; otherwise memwatch.yaml is looked up in
// the working directory and silently ignored when absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(configName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
