//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-warning-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-warning-service/internal/alert"
	"github.com/couchcryptid/disaster-warning-service/internal/config"
	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
	"github.com/couchcryptid/disaster-warning-service/internal/pipeline"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
	"github.com/couchcryptid/disaster-warning-service/internal/store"
)

const (
	testSourceTopic = "test-raw-telemetry"
	testSinkTopic   = "test-risk-assessments"
)

// assessedMessage holds a deserialized message read from the sink topic.
type assessedMessage struct {
	Assessment domain.RiskAssessment
	Key        string
	Headers    map[string]string
}

// readAssessed reads a single message from the sink consumer and deserializes it.
func readAssessed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) assessedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var assessment domain.RiskAssessment
	require.NoError(t, json.Unmarshal(msg.Value, &assessment), "unmarshal sink message")

	return assessedMessage{
		Assessment: assessment,
		Key:        string(msg.Key),
		Headers:    headers,
	}
}

func testConfig(broker string, label string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-%s-%d", label, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newPipeline(t *testing.T, cfg *config.Config) (*pipeline.Pipeline, *store.Memory) {
	t.Helper()

	clock := clockwork.NewRealClock()
	mem := store.NewMemory(clock)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	alertSvc := alert.NewService(
		alert.NewRateLimiter(time.Hour, clock),
		mem.Predictions,
		mem.Alerts,
		nil,
		logger,
		metrics,
		clock,
	)

	reader := kafka.NewReader(cfg, logger)
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	assessor := pipeline.NewTelemetryAssessor(
		mem.Regions, mem.Telemetry, risk.NewEngine(clock, logger), nil, alertSvc, logger, metrics)

	return pipeline.New(reader, assessor, writer, logger, metrics, 50), mem
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "reader")

	payload := []byte(`{"region_id":"delta-01","timestamp":"2025-07-14T06:00:00Z","rainfall_mm":120,"river_level_m":6}`)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("delta-01"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("delta-01"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	// Score the record and load the assessment via kafka.Writer.
	rec, err := domain.ParseRawEvent(raw)
	require.NoError(t, err)

	engine := risk.NewEngine(clockwork.NewRealClock(), discardLogger())
	assessment := engine.Assess(ctx, nil, domain.FeatureVector{RegionID: rec.RegionID}, rec)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.RiskAssessment{assessment}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	am := readAssessed(ctx, t, consumer)
	assert.Equal(t, "delta-01", am.Key)
	assert.Equal(t, "Flood", am.Headers["disaster_type"])
	assert.Equal(t, "High", am.Headers["risk_level"])
	_, err = time.Parse(time.RFC3339, am.Headers["assessed_at"])
	assert.NoError(t, err, "assessed_at should be valid RFC3339")

	assert.Equal(t, domain.DisasterFlood, am.Assessment.DisasterType)
	assert.Equal(t, 95, am.Assessment.FinalScore)
	assert.Equal(t, domain.RiskHigh, am.Assessment.RiskLevel)
}

// TestPipelineEndToEnd wires the full pipeline with real Kafka and verifies
// assessments and alert side effects for a mixed batch of regions.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "pipeline")

	payloads := []string{
		`{"region_id":"delta-01","timestamp":"2025-07-14T06:00:00Z","rainfall_mm":120,"river_level_m":6}`,
		`{"region_id":"coast-02","timestamp":"2025-07-14T06:00:00Z","wind_speed_kmh":90,"pressure_hpa":985}`,
		`{"region_id":"vale-05","timestamp":"2025-07-14T06:00:00Z","rainfall_mm":5,"wind_speed_kmh":10}`,
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(payloads))
	for _, p := range payloads {
		msgs = append(msgs, kafkago.Message{Value: []byte(p)})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	p, mem := newPipeline(t, cfg)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]assessedMessage, len(payloads))
	for len(received) < len(payloads) {
		am := readAssessed(ctx, t, consumer)
		received[am.Assessment.RegionID] = am
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	flood := received["delta-01"].Assessment
	assert.Equal(t, domain.DisasterFlood, flood.DisasterType)
	assert.Equal(t, domain.RiskHigh, flood.RiskLevel)

	cyclone := received["coast-02"].Assessment
	assert.Equal(t, domain.DisasterCyclone, cyclone.DisasterType)
	assert.GreaterOrEqual(t, cyclone.FinalScore, 80)

	calm := received["vale-05"].Assessment
	assert.Equal(t, domain.DisasterNone, calm.DisasterType)
	assert.Equal(t, domain.RiskLow, calm.RiskLevel)

	// Two hazardous regions alerted, the calm one did not.
	active, err := mem.Alerts.Active(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 2, mem.Predictions.Count())
}

// TestPipelinePoisonPill verifies that an invalid message is skipped and the
// pipeline continues processing valid messages.
func TestPipelinePoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "poison")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: []byte(`{"region_id":"delta-01","timestamp":"2025-07-14T06:00:00Z","rainfall_mm":120,"river_level_m":6}`)},
	))

	p, _ := newPipeline(t, cfg)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	am := readAssessed(ctx, t, consumer)
	assert.Equal(t, "delta-01", am.Assessment.RegionID)
	assert.Equal(t, domain.DisasterFlood, am.Assessment.DisasterType)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
