// Package config loads the server configuration: defaults, an optional
// config file, and COFFEE_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Retry struct {
	MaxAttempts        int           `mapstructure:"max_attempts"`
	InitialInterval    time.Duration `mapstructure:"initial_interval"`
	BackoffCoefficient float64       `mapstructure:"backoff_coefficient"`
	StepTimeout        time.Duration `mapstructure:"step_timeout"`
}

type Config struct {
	ServiceName string `mapstructure:"service_name"`
	HTTPAddr    string `mapstructure:"http_addr"`

	// JournalPath is the SQLite file for the order journal. Empty disables
	// durability (progress is kept in memory only).
	JournalPath string `mapstructure:"journal_path"`

	// RedisAddr enables the terminal-result cache. Empty disables it.
	RedisAddr string `mapstructure:"redis_addr"`

	// BrewFailureRate is the simulated flakiness of the brew executor.
	BrewFailureRate float64 `mapstructure:"brew_failure_rate"`

	Retry Retry `mapstructure:"retry"`
}

// Load reads config.yaml from the working directory if present, applies
// defaults, and lets COFFEE_* environment variables override everything
// (e.g. COFFEE_HTTP_ADDR, COFFEE_RETRY_MAX_ATTEMPTS).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("service_name", "coffee-server")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("journal_path", "./data/orders.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("brew_failure_rate", 0.3)
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_interval", "1s")
	v.SetDefault("retry.backoff_coefficient", 2.0)
	v.SetDefault("retry.step_timeout", "10s")

	v.SetEnvPrefix("COFFEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
		// No file is fine; defaults and env cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
