package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpenWeatherKey = "ow-test-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_KEY", testOpenWeatherKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "model/risk_model.bin", cfg.ModelPath)
	assert.Equal(t, "model/risk_metadata.json", cfg.MetadataPath)
	assert.Equal(t, "data/daegu_coords.json", cfg.LocationsPath)
	assert.Equal(t, testOpenWeatherKey, cfg.OpenWeatherKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/weather", cfg.OpenWeatherURL)
	assert.Equal(t, 8*time.Second, cfg.OpenWeatherTimeout)
	assert.Equal(t, 10*time.Minute, cfg.OpenWeatherCacheTTL)
	assert.Equal(t, 10.0, cfg.OpenWeatherRateLimit)
	assert.Empty(t, cfg.KakaoJSKey)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "risk-predictions", cfg.KafkaTopic)
	assert.False(t, cfg.KafkaEnabled)
	assert.Zero(t, cfg.PublishInterval)
	assert.Equal(t, 3, cfg.PublishMaxAttempts)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_KEY", testOpenWeatherKey)
	t.Setenv("OPENWEATHER_URL", "http://localhost:9999/weather")
	t.Setenv("OPENWEATHER_TIMEOUT", "3s")
	t.Setenv("OPENWEATHER_CACHE_TTL", "0")
	t.Setenv("OPENWEATHER_RATE_LIMIT", "2.5")
	t.Setenv("KAKAO_JS_KEY", "kakao-key")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MODEL_PATH", "/srv/model.bin")
	t.Setenv("METADATA_PATH", "/srv/meta.json")
	t.Setenv("LOCATIONS_PATH", "/srv/coords.json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-predictions")
	t.Setenv("PUBLISH_INTERVAL", "5m")
	t.Setenv("PUBLISH_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/weather", cfg.OpenWeatherURL)
	assert.Equal(t, 3*time.Second, cfg.OpenWeatherTimeout)
	assert.Zero(t, cfg.OpenWeatherCacheTTL)
	assert.Equal(t, 2.5, cfg.OpenWeatherRateLimit)
	assert.Equal(t, "kakao-key", cfg.KakaoJSKey)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/srv/model.bin", cfg.ModelPath)
	assert.Equal(t, "/srv/meta.json", cfg.MetadataPath)
	assert.Equal(t, "/srv/coords.json", cfg.LocationsPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-predictions", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, 5*time.Minute, cfg.PublishInterval)
	assert.Equal(t, 5, cfg.PublishMaxAttempts)
}

func TestLoad_MissingOpenWeatherKey(t *testing.T) {
	t.Setenv("OPENWEATHER_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"OPENWEATHER_TIMEOUT", "bad"},
		{"OPENWEATHER_TIMEOUT", "0s"},
		{"OPENWEATHER_CACHE_TTL", "-5m"},
		{"OPENWEATHER_RATE_LIMIT", "fast"},
		{"OPENWEATHER_RATE_LIMIT", "-1"},
		{"PUBLISH_INTERVAL", "-1m"},
		{"PUBLISH_MAX_ATTEMPTS", "0"},
		{"PUBLISH_MAX_ATTEMPTS", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("OPENWEATHER_KEY", testOpenWeatherKey)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("OPENWEATHER_KEY", testOpenWeatherKey)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("OPENWEATHER_KEY", testOpenWeatherKey)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

// unsetForTest clears key for the duration of the test so a .env file can
// supply it; the original value is restored on cleanup.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("OPENWEATHER_KEY=from-dotenv\nKAKAO_JS_KEY=kakao-from-file\n"), 0o600))
	t.Chdir(dir)

	unsetForTest(t, "OPENWEATHER_KEY")
	t.Setenv("KAKAO_JS_KEY", "kakao-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OpenWeatherKey)
	assert.Equal(t, "kakao-from-env", cfg.KakaoJSKey, "real environment wins over .env")
}
