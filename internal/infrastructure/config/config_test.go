package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/damon-houk/payment-web-client/internal/infrastructure/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configDir = "/etc/payment-client"

func writeConfig(t *testing.T, fs afero.Fs, contents string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(configDir, "config.yaml"), []byte(contents), 0o644))
}

func TestDefaults(t *testing.T) {
	c, err := config.New(configDir, afero.NewMemMapFs())
	require.NoError(t, err)

	settings, err := c.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", settings.Server.BaseURL)
	assert.Equal(t, 10*time.Second, settings.Server.Timeout)
	assert.Equal(t, "INFO", settings.Log.Level)
	assert.False(t, settings.History.Enabled())
	assert.Empty(t, settings.Metrics.Addr)
}

func TestFileValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, `
server:
  base_url: https://payments.example.com
  timeout: 3s
log:
  level: debug
history:
  path: /var/lib/payment-client
metrics:
  addr: ":9091"
`)
	c, err := config.New(configDir, fs)
	require.NoError(t, err)

	settings, err := c.Load()

	require.NoError(t, err)
	assert.Equal(t, "https://payments.example.com", settings.Server.BaseURL)
	assert.Equal(t, 3*time.Second, settings.Server.Timeout)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.Equal(t, "/var/lib/payment-client", settings.History.Path)
	assert.True(t, settings.History.Enabled())
	assert.Equal(t, ":9091", settings.Metrics.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "server:\n  base_url: http://from-file:8080\n")
	t.Setenv("PAYMENT_CLIENT_SERVER_BASE_URL", "http://from-env:9000")
	t.Setenv("PAYMENT_CLIENT_HISTORY_IN_MEMORY", "true")

	c, err := config.New(configDir, fs)
	require.NoError(t, err)
	settings, err := c.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", settings.Server.BaseURL)
	assert.True(t, settings.History.InMemory)
}

func TestMalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "server: [unterminated")

	_, err := config.New(configDir, fs)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := config.Settings{
		Server: config.ServerSettings{BaseURL: "http://localhost:8080", Timeout: time.Second},
		Log:    config.LogSettings{Level: "WARN"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(s *config.Settings)
	}{
		{"Relative base URL", func(s *config.Settings) { s.Server.BaseURL = "/payments" }},
		{"Unsupported scheme", func(s *config.Settings) { s.Server.BaseURL = "ftp://host" }},
		{"Zero timeout", func(s *config.Settings) { s.Server.Timeout = 0 }},
		{"Unknown log level", func(s *config.Settings) { s.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
