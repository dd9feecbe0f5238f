// Package config loads client settings from an optional config.yaml and
// PAYMENT_CLIENT_ environment variables
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, with "." mapped to "_"
const EnvPrefix = "PAYMENT_CLIENT"

// Settings is the complete client configuration
type Settings struct {
	Server  ServerSettings  `mapstructure:"server"`
	Log     LogSettings     `mapstructure:"log"`
	History HistorySettings `mapstructure:"history"`
	Metrics MetricsSettings `mapstructure:"metrics"`
}

// ServerSettings locates the payment web application
type ServerSettings struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogSettings configures the JSON logger
type LogSettings struct {
	Level string `mapstructure:"level"`
}

// HistorySettings configures the submission history store. An empty Path
// with InMemory unset disables history.
type HistorySettings struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// Enabled reports whether a history store should be opened
func (h HistorySettings) Enabled() bool {
	return h.Path != "" || h.InMemory
}

// MetricsSettings configures the Prometheus endpoint; an empty Addr disables it
type MetricsSettings struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]interface{}{
	"server.base_url":   "http://localhost:8080",
	"server.timeout":    10 * time.Second,
	"log.level":         string(logger.InfoLevel),
	"history.path":      "",
	"history.in_memory": false,
	"metrics.addr":      "",
}

// Config wraps a viper instance reading from fs
type Config struct {
	*viper.Viper
}

// New reads config.yaml from configPath on fs when it exists. A missing file
// is not an error; defaults and environment variables still apply.
func New(configPath string, fs afero.Fs) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config file: %w", err)
			}
		}
	}

	return &Config{Viper: v}, nil
}

// Load unmarshals and validates the settings
func (c *Config) Load() (*Settings, error) {
	settings := &Settings{}
	if err := c.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the base URL, the timeout and the log level
func (s *Settings) Validate() error {
	u, err := url.Parse(s.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server.base_url %q: want an absolute http(s) URL", s.Server.BaseURL)
	}
	if s.Server.Timeout <= 0 {
		return fmt.Errorf("invalid server.timeout %s: must be positive", s.Server.Timeout)
	}
	if _, err := logger.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}
