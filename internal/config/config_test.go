package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Zero(t, cfg.Cache.DefaultTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9090"
  read_timeout: 2s
cache:
  capacity: 50
  default_ttl: 1m30s
log:
  level: debug
  format: json
metrics:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout) // untouched default
	assert.Equal(t, 50, cfg.Cache.Capacity)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LRUCACHE_ADDR", "127.0.0.1:7000")
	t.Setenv("LRUCACHE_CAPACITY", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Cache.Capacity)

	t.Setenv("LRUCACHE_CAPACITY", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "LRUCACHE_CAPACITY")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "cache: [unterminated"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, `
cache:
  capacity: 0
  default_ttl: -1s
log:
  level: loud
metrics:
  path: metrics
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "cache.capacity")
	assert.ErrorContains(t, err, "cache.default_ttl")
	assert.ErrorContains(t, err, "log.level")
	assert.ErrorContains(t, err, "metrics.path")
}
