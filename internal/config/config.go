// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// DatabaseURL enables the Postgres stores; empty falls back to the
	// in-memory stores (development mode).
	DatabaseURL string

	// Model service configuration.
	ModelURL     string
	ModelEnabled bool
	ModelTimeout time.Duration

	// Alerting configuration.
	AlertCooldown   time.Duration
	DeliveryLogPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parseDurationEnv("MODEL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveIntEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cooldownMinutes, err := parsePositiveIntEnv("ALERT_COOLDOWN_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	modelURL := os.Getenv("MODEL_URL")
	modelEnabled := modelURL != ""
	if v := os.Getenv("MODEL_ENABLED"); v != "" {
		modelEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-telemetry"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "risk-assessments"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "disaster-warning"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ModelURL:           modelURL,
		ModelEnabled:       modelEnabled,
		ModelTimeout:       modelTimeout,
		AlertCooldown:      time.Duration(cooldownMinutes) * time.Minute,
		DeliveryLogPath:    envOrDefault("DELIVERY_LOG_PATH", "logs/alerts.log"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ModelEnabled && cfg.ModelURL == "" {
		return nil, errors.New("MODEL_ENABLED is true but MODEL_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
