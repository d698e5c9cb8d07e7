package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "1901-2022.nc", cfg.RainfallPath)
	assert.Equal(t, "RAINFALL", cfg.RainfallVar)
	assert.Equal(t, "TIME", cfg.TimeVar)
	assert.Equal(t, "LATITUDE", cfg.LatVar)
	assert.Equal(t, "LONGITUDE", cfg.LonVar)
	assert.Equal(t, DefaultBoundaryPath, cfg.BoundaryPath)
	assert.Equal(t, "State_Name", cfg.BoundaryNameField)
	assert.Equal(t, domain.WeekAnchorJan1, cfg.WeekAnchor)
	assert.False(t, cfg.ClipToBoundary)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Empty(t, cfg.RedisPassword)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.InDelta(t, 5.0, cfg.RenderRateLimit, 1e-9)
	assert.Equal(t, 10, cfg.RenderBurst)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "weekly-rainfall", cfg.KafkaExportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("RAINFALL_PATH", "/data/rain.nc")
	t.Setenv("RAINFALL_VAR", "rf")
	t.Setenv("BOUNDARY_PATH", "/data/states.shp")
	t.Setenv("BOUNDARY_NAME_FIELD", "NAME_1")
	t.Setenv("WEEK_ANCHOR", "sunday")
	t.Setenv("CLIP_TO_BOUNDARY", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RENDER_RATE_LIMIT", "0.5")
	t.Setenv("RENDER_BURST", "3")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_EXPORT_TOPIC", "custom-export")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/data/rain.nc", cfg.RainfallPath)
	assert.Equal(t, "rf", cfg.RainfallVar)
	assert.Equal(t, "/data/states.shp", cfg.BoundaryPath)
	assert.Equal(t, "NAME_1", cfg.BoundaryNameField)
	assert.Equal(t, domain.WeekAnchorSunday, cfg.WeekAnchor)
	assert.True(t, cfg.ClipToBoundary)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.InDelta(t, 0.5, cfg.RenderRateLimit, 1e-9)
	assert.Equal(t, 3, cfg.RenderBurst)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-export", cfg.KafkaExportTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"WEEK_ANCHOR", "monday"},
		{"CLIP_TO_BOUNDARY", "maybe"},
		{"CACHE_TTL", "soon"},
		{"CACHE_SIZE", "-1"},
		{"CACHE_BACKEND", "memcached"},
		{"REDIS_DB", "one"},
		{"RENDER_RATE_LIMIT", "-2"},
		{"RENDER_BURST", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_ZeroCacheSizeWithMemoryBackend(t *testing.T) {
	t.Setenv("CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIZE")
}

func TestLoad_ZeroCacheSizeWithoutCache(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "none")
	t.Setenv("CACHE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CacheNone, cfg.CacheBackend)
}

func TestLoad_RateLimitDisabled(t *testing.T) {
	t.Setenv("RENDER_RATE_LIMIT", "0")
	t.Setenv("RENDER_BURST", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.RenderRateLimit)
}

func TestLoad_RateLimitWithoutBurst(t *testing.T) {
	t.Setenv("RENDER_BURST", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RENDER_BURST")
}

func TestExportConfig(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.ExportConfig())

	cfg.KafkaExportTopic = ""
	assert.ErrorContains(t, cfg.ExportConfig(), "KAFKA_EXPORT_TOPIC")

	cfg.KafkaBrokers = nil
	assert.ErrorContains(t, cfg.ExportConfig(), "KAFKA_BROKERS")
}
