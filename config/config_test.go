package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polytoolkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.API.GammaBase)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.API.DataBase)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 300*time.Second, cfg.CacheTTL())
	assert.Equal(t, 2, cfg.Toolkit.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
api:
  gamma_base: http://localhost:9000
toolkit:
  timeout_seconds: 5
  cache_ttl_seconds: 60
storage:
  dsn: ":memory:"
  record: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.API.GammaBase)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.True(t, cfg.Storage.Record)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POLYMARKET_TIMEOUT_SECONDS", "7")
	t.Setenv("POLYMARKET_CACHE_TTL_SECONDS", "12")
	t.Setenv("POLYMARKET_DATA_BASE", "http://data.local")
	t.Setenv("LOG_FORMAT", "json")

	path := writeConfig(t, "toolkit:\n  timeout_seconds: 30\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.Timeout())
	assert.Equal(t, 12*time.Second, cfg.CacheTTL())
	assert.Equal(t, "http://data.local", cfg.API.DataBase)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("POLYMARKET_TIMEOUT_SECONDS", "soon")

	_, err := config.Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "api: [unterminated"))
	assert.Error(t, err)
}
