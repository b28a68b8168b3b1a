package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-warning-service/internal/config"
	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes risk assessments to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple assessments to the sink topic
// in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, assessments []domain.RiskAssessment) error {
	if len(assessments) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(assessments))
	for i := range assessments {
		msg, err := serializeToMessage(assessments[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RiskAssessment into a Kafka message keyed by
// region so per-region ordering survives partitioning.
func serializeToMessage(a domain.RiskAssessment) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.RegionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "disaster_type", Value: []byte(a.DisasterType)},
			{Key: "risk_level", Value: []byte(a.RiskLevel)},
			{Key: "assessed_at", Value: []byte(a.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
