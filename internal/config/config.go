package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Trained artifacts and the location registry.
	ModelPath     string
	MetadataPath  string
	LocationsPath string

	// OpenWeather configuration.
	OpenWeatherKey       string
	OpenWeatherURL       string
	OpenWeatherTimeout   time.Duration
	OpenWeatherCacheTTL  time.Duration
	OpenWeatherRateLimit float64

	// KakaoJSKey is passed to the map page; empty renders the page without a map.
	KakaoJSKey string

	// Prediction publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// PublishInterval schedules a publish pass every interval; 0 publishes
	// only the passes triggered by requests.
	PublishInterval    time.Duration
	PublishMaxAttempts int
}

// Load reads configuration from the environment, applying defaults where
// unset. Variables in a .env file in the working directory are loaded first
// without overriding the real environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	owTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", "8s", false)
	if err != nil {
		return nil, err
	}
	owCacheTTL, err := parseDuration("OPENWEATHER_CACHE_TTL", "10m", true)
	if err != nil {
		return nil, err
	}
	owRate, err := parseRate("OPENWEATHER_RATE_LIMIT", "10")
	if err != nil {
		return nil, err
	}

	publishInterval, err := parseDuration("PUBLISH_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}
	publishAttempts, err := strconv.Atoi(sharedcfg.EnvOrDefault("PUBLISH_MAX_ATTEMPTS", "3"))
	if err != nil || publishAttempts < 1 {
		return nil, errors.New("invalid PUBLISH_MAX_ATTEMPTS: must be a positive integer")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:     sharedcfg.EnvOrDefault("MODEL_PATH", "model/risk_model.bin"),
		MetadataPath:  sharedcfg.EnvOrDefault("METADATA_PATH", "model/risk_metadata.json"),
		LocationsPath: sharedcfg.EnvOrDefault("LOCATIONS_PATH", "data/daegu_coords.json"),

		OpenWeatherKey:       os.Getenv("OPENWEATHER_KEY"),
		OpenWeatherURL:       sharedcfg.EnvOrDefault("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5/weather"),
		OpenWeatherTimeout:   owTimeout,
		OpenWeatherCacheTTL:  owCacheTTL,
		OpenWeatherRateLimit: owRate,

		KakaoJSKey: os.Getenv("KAKAO_JS_KEY"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "risk-predictions"),
		KafkaEnabled: kafkaEnabled,

		PublishInterval:    publishInterval,
		PublishMaxAttempts: publishAttempts,
	}

	if cfg.OpenWeatherKey == "" {
		return nil, errors.New("OPENWEATHER_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseDuration reads a duration variable. Zero is accepted only when
// allowZero is set; negative values are always rejected.
func parseDuration(key, fallback string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseRate reads a requests-per-second limit; 0 disables limiting.
func parseRate(key, fallback string) (float64, error) {
	r, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, fallback), 64)
	if err != nil || r < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative number", key)
	}
	return r, nil
}
