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

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-telemetry", cfg.KafkaSourceTopic)
	assert.Equal(t, "risk-assessments", cfg.KafkaSinkTopic)
	assert.Equal(t, "disaster-warning", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.ModelEnabled)
	assert.Empty(t, cfg.ModelURL)
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 60*time.Minute, cfg.AlertCooldown)
	assert.Equal(t, "logs/alerts.log", cfg.DeliveryLogPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DATABASE_URL", "postgres://localhost/warnings")
	t.Setenv("MODEL_URL", "http://model:8000")
	t.Setenv("MODEL_TIMEOUT", "10s")
	t.Setenv("ALERT_COOLDOWN_MINUTES", "15")
	t.Setenv("DELIVERY_LOG_PATH", "/var/log/alerts.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "postgres://localhost/warnings", cfg.DatabaseURL)
	assert.Equal(t, "http://model:8000", cfg.ModelURL)
	assert.Equal(t, 10*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AlertCooldown)
	assert.Equal(t, "/var/log/alerts.log", cfg.DeliveryLogPath)
}

func TestLoad_ModelFlag(t *testing.T) {
	t.Run("enabled by MODEL_URL", func(t *testing.T) {
		t.Setenv("MODEL_URL", "http://model:8000")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.ModelEnabled)
	})

	t.Run("disabled explicitly despite MODEL_URL", func(t *testing.T) {
		t.Setenv("MODEL_URL", "http://model:8000")
		t.Setenv("MODEL_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.ModelEnabled)
	})

	t.Run("enabled without MODEL_URL is an error", func(t *testing.T) {
		t.Setenv("MODEL_ENABLED", "true")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty brokers", "KAFKA_BROKERS", " , "},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-5s"},
		{"bad batch size", "BATCH_SIZE", "many"},
		{"zero batch size", "BATCH_SIZE", "0"},
		{"bad flush interval", "BATCH_FLUSH_INTERVAL", "fast"},
		{"bad model timeout", "MODEL_TIMEOUT", "never"},
		{"bad cooldown", "ALERT_COOLDOWN_MINUTES", "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
