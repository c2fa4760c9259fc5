package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10, cfg.Console.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Console.SearchDebounce)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://incidents.internal
  rate_limit: 5
console:
  search_debounce: 500ms
  locale: de_DE.UTF-8
log:
  level: debug
  file: /tmp/console.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://incidents.internal", cfg.API.BaseURL)
	assert.Equal(t, 5.0, cfg.API.RateLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Console.SearchDebounce)
	assert.Equal(t, "de_DE.UTF-8", cfg.Console.Locale)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/console.log", cfg.Log.File)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://from-file.example
`)
	t.Setenv("INCIDENT_API__BASE_URL", "http://from-env.example:8080")
	t.Setenv("INCIDENT_SERVER__PORT", "18080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env.example:8080", cfg.API.BaseURL)
	assert.Equal(t, "18080", cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "log:\n  level: verbose\n"},
		{"bad base url", "api:\n  base_url: not-a-url\n"},
		{"page size too large", "console:\n  page_size: 500\n"},
		{"negative rate limit", "api:\n  rate_limit: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "api.base_url", envKey("INCIDENT_API__BASE_URL"))
	assert.Equal(t, "console.search_debounce", envKey("INCIDENT_CONSOLE__SEARCH_DEBOUNCE"))
}

func TestLoad_ExampleMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoad_ExampleKeepsFixedPageSize(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "page_size")
	assert.Equal(t, 10, Defaults().Console.PageSize)
}
