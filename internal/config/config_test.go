package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "artifacts/aqi_model.json", cfg.ModelPath)
	assert.Equal(t, "artifacts/feature_list.json", cfg.FeatureListPath)
	assert.InDelta(t, 0.40, cfg.PredictionThreshold, 1e-12)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Empty(t, cfg.AirNowAPIKey)
	assert.Equal(t, "https://www.airnowapi.org", cfg.AirNowBaseURL)
	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "08901", cfg.DefaultZIP)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "aqi-predictions", cfg.KafkaTopic)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, 24*time.Hour, cfg.PublishInterval)
	assert.Equal(t, []string{"08901"}, cfg.PublishLocations)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("API_PREFIX", "/v1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MODEL_PATH", "/models/xgb.json")
	t.Setenv("PREDICTION_THRESHOLD", "0.55")
	t.Setenv("CACHE_SIZE", "50")
	t.Setenv("AIRNOW_API_KEY", "secret")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("DEFAULT_ZIP", "08540")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("PUBLISH_INTERVAL", "1h")
	t.Setenv("PUBLISH_LOCATIONS", "08901,07102")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/models/xgb.json", cfg.ModelPath)
	assert.InDelta(t, 0.55, cfg.PredictionThreshold, 1e-12)
	assert.Equal(t, 50, cfg.CacheSize)
	assert.Equal(t, "secret", cfg.AirNowAPIKey)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "08540", cfg.DefaultZIP)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.True(t, cfg.PublishEnabled, "brokers imply publishing")
	assert.Equal(t, time.Hour, cfg.PublishInterval)
	assert.Equal(t, []string{"08901", "07102"}, cfg.PublishLocations)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	for _, v := range []string{"0", "1", "1.5", "-0.2"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PREDICTION_THRESHOLD", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PREDICTION_THRESHOLD")
		})
	}
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIZE")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidDefaultZIP(t *testing.T) {
	t.Setenv("DEFAULT_ZIP", "NJ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_ZIP")
}

func TestLoad_PublishEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("PUBLISH_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_PublishExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", defaultBroker)
	t.Setenv("PUBLISH_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
}

func TestLoad_MapboxEnabledByToken(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", "pk.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, "pk.test", cfg.MapboxToken)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", "pk.test")
	t.Setenv("MAPBOX_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
