package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfr-ingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://www.ecfr.gov", cfg.ECFR.BaseURL)
	assert.Equal(t, 5, cfg.ECFR.MaxRetries)
	assert.Equal(t, time.Second, cfg.RateLimit.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.MaxDelay)
	assert.Equal(t, CheckpointFile, cfg.Checkpoint.Backend)
	assert.NotEmpty(t, cfg.Checkpoint.Path)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
ecfr:
  max_retries: 3
  timeout: 15s
rate_limit:
  base_delay: 500ms
database:
  url: postgres://file/db
checkpoint:
  path: /tmp/cfr/checkpoint.json
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.ECFR.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.ECFR.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.MaxDelay, "unset keys keep defaults")
	assert.Equal(t, "https://www.ecfr.gov", cfg.ECFR.BaseURL)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, "/tmp/cfr/checkpoint.json", cfg.Checkpoint.Path)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "database:\n  url: postgres://file/db\n")

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("CFR_MAX_RETRIES", "7")
	t.Setenv("CFR_RATE_MAX_DELAY", "2m")
	t.Setenv("CFR_DB_MIGRATE", "false")
	t.Setenv("CFR_METRICS_ADDR", ":9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, 7, cfg.ECFR.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.MaxDelay)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
}

func TestLoad_BadEnvValuesKeepPrevious(t *testing.T) {
	t.Setenv("CFR_MAX_RETRIES", "many")
	t.Setenv("CFR_HTTP_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ECFR.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.ECFR.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeFile(t, "ecfr: [unclosed"))
	assert.True(t, errors.Is(err, ErrInvalid), "err = %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database url", func(c *Config) { c.Database.URL = "" }},
		{"zero retries", func(c *Config) { c.ECFR.MaxRetries = 0 }},
		{"zero timeout", func(c *Config) { c.ECFR.Timeout = 0 }},
		{"max below base", func(c *Config) { c.RateLimit.MaxDelay = c.RateLimit.BaseDelay / 2 }},
		{"unknown backend", func(c *Config) { c.Checkpoint.Backend = "s3" }},
		{"redis backend without url", func(c *Config) { c.Checkpoint.Backend = CheckpointRedis }},
		{"file backend without path", func(c *Config) { c.Checkpoint.Path = "" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidate_RedisBackendWithURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Checkpoint.Backend = CheckpointRedis
	cfg.Redis.URL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Metrics.Addr = ":9999"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Metrics.Addr)
	assert.Equal(t, cfg.RateLimit, loaded.RateLimit)
}
