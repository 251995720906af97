package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, CacheBackendLocal, cfg.Cache.Backend)
	assert.Equal(t, "models_snapshot.json", cfg.Cache.FilePath)
	assert.False(t, cfg.Usage.Enabled)
	assert.Equal(t, 30, cfg.Usage.RetentionDays)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MASTER_KEY", "top-secret")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("USAGE_ENABLED", "true")
	t.Setenv("USAGE_DB_PATH", "/tmp/usage.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "top-secret", cfg.Server.MasterKey)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
	assert.True(t, cfg.Usage.Enabled)
	assert.Equal(t, "/tmp/usage.db", cfg.Usage.DBPath)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}
