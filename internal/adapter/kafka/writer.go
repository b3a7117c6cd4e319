package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/airwatch-service/internal/config"
	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// Header keys set on every published decision.
const (
	HeaderClassification = "classification"
	HeaderTargetDate     = "target_date"
)

const dayLayout = "2006-01-02"

// Writer produces decisions to a Kafka topic.
// It implements pipeline.DecisionSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured prediction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes decisions in a single WriteMessages call.
// Messages are keyed by location and target day so each day's decision for a
// location lands on the same partition.
func (w *Writer) Publish(ctx context.Context, decisions []domain.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(decisions))
	for i := range decisions {
		msg, err := serializeToMessage(decisions[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write decisions: %w", err)
	}
	w.logger.Debug("decisions written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Decision into a Kafka message.
func serializeToMessage(d domain.Decision) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize decision: %w", err)
	}
	day := d.TargetDate.Format(dayLayout)
	return kafkago.Message{
		Key:   []byte(d.Location + "|" + day),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderClassification, Value: []byte(d.Classification)},
			{Key: HeaderTargetDate, Value: []byte(day)},
		},
	}, nil
}
