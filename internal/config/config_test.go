package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 8, cfg.Engine.Concurrency)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/engine.yaml")
	assert.Error(t, err)
}

func TestLoad_YAMLLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  concurrency: 4
http:
  port: 9090
cache:
  enabled: true
  addr: redis.staging:6379
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.Concurrency)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis.staging:6379", cfg.Cache.Addr)
	// untouched sections keep their defaults
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
	require.NoError(t, cfg.Engine.Weights.Validate())
}

func TestLoad_RejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  weights:
    vacancy_pressure: 0.9
    seasonal_leverage: 0.9
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err, "weights that do not sum to 1 must be rejected")
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("PG_DSN", "postgres://app@db/leaselens")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Cache.Addr)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "postgres://app@db/leaselens", cfg.Storage.DSN)
	assert.True(t, cfg.Storage.Enabled)
}

func TestLoad_PGEnabledOverride(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://app@db/leaselens")
	t.Setenv("PG_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Storage.Enabled)
}

func TestValidate_Rejections(t *testing.T) {
	base := Default()

	cfg := base
	cfg.Engine.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.HTTP.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Storage.Enabled = true
	cfg.Storage.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Engine.Concessions["free_helicopter"] = cfg.Engine.Concessions["waived_fees"]
	assert.Error(t, cfg.Validate())
}
