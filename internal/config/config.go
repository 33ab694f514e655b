// Package config loads service settings from environment variables, with
// optional .env support for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/skycast-app/skycast/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	DBPath          string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Periodic update scheduler.
	UpdateInterval  time.Duration
	SweepMaxRetries int
	SweepRetryDelay time.Duration

	// Default display unit for classification when no stored setting exists.
	DefaultUnit domain.TemperatureUnit

	// Upstream HTTP behavior.
	RequestTimeout time.Duration

	// Max entries in the in-memory geocoding cache.
	GeocodeCacheSize int

	// Sliding-window budgets per upstream API family.
	WeatherMaxRequests    int
	WeatherWindow         time.Duration
	AirQualityMaxRequests int
	AirQualityWindow      time.Duration

	// Kafka alert-notification sink (feature-flagged; disabled when no
	// brokers are configured).
	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEnabled    bool

	// Morning summary notification.
	MorningSummaryEnabled bool
	MorningSummaryHour    int
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first when
// present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	updateInterval, err := parseDuration("UPDATE_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	sweepRetryDelay, err := parseDuration("SWEEP_RETRY_DELAY", "5s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherWindow, err := parseDuration("WEATHER_RATE_WINDOW", "10s")
	if err != nil {
		return nil, err
	}
	airWindow, err := parseDuration("AIR_QUALITY_RATE_WINDOW", "10s")
	if err != nil {
		return nil, err
	}

	sweepMaxRetries, err := parseInt("SWEEP_MAX_RETRIES", 3, 0, 10)
	if err != nil {
		return nil, err
	}
	weatherMax, err := parseInt("WEATHER_RATE_MAX", 10, 1, 1000)
	if err != nil {
		return nil, err
	}
	airMax, err := parseInt("AIR_QUALITY_RATE_MAX", 5, 1, 1000)
	if err != nil {
		return nil, err
	}
	summaryHour, err := parseInt("MORNING_SUMMARY_HOUR", 7, 0, 23)
	if err != nil {
		return nil, err
	}
	geocodeCacheSize, err := parseInt("GEOCODE_CACHE_SIZE", 1000, 1, 100000)
	if err != nil {
		return nil, err
	}

	unit := domain.TemperatureUnit(envOrDefault("DEFAULT_UNIT", "C"))
	if unit != domain.Celsius && unit != domain.Fahrenheit {
		return nil, fmt.Errorf("invalid DEFAULT_UNIT %q: must be C or F", unit)
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DBPath:          envOrDefault("DB_PATH", "skycast.db"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpdateInterval:  updateInterval,
		SweepMaxRetries: sweepMaxRetries,
		SweepRetryDelay: sweepRetryDelay,

		DefaultUnit: unit,

		RequestTimeout: requestTimeout,

		GeocodeCacheSize: geocodeCacheSize,

		WeatherMaxRequests:    weatherMax,
		WeatherWindow:         weatherWindow,
		AirQualityMaxRequests: airMax,
		AirQualityWindow:      airWindow,

		KafkaBrokers:    brokers,
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "weather-alerts"),
		KafkaEnabled:    kafkaEnabled,

		MorningSummaryEnabled: os.Getenv("MORNING_SUMMARY_ENABLED") == "true",
		MorningSummaryHour:    summaryHour,
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q (must be %d-%d)", key, s, min, max)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
