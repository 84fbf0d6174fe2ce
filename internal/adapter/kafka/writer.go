package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazard-score/internal/config"
	"github.com/couchcryptid/hazard-score/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes assessments to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured assessment topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAssessmentTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, topic: cfg.KafkaAssessmentTopic, logger: logger}
}

// Publish serializes one assessment and writes it keyed by its ID, so
// repeated assessments of a point land on the same partition.
func (w *Writer) Publish(ctx context.Context, a domain.Assessment) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish assessment %s to %s: %w", a.ID, w.topic, err)
	}
	w.logger.Debug("assessment published", "assessment_id", a.ID, "topic", w.topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Assessment into a Kafka message.
func serializeToMessage(a domain.Assessment) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "label", Value: []byte(a.Label)},
			{Key: "label_source", Value: []byte(a.LabelSource)},
			{Key: "assessed_at", Value: []byte(a.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}
