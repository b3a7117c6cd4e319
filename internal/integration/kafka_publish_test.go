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

	"github.com/couchcryptid/airwatch-service/internal/adapter/kafka"
	"github.com/couchcryptid/airwatch-service/internal/cache"
	"github.com/couchcryptid/airwatch-service/internal/config"
	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/model"
	"github.com/couchcryptid/airwatch-service/internal/observability"
	"github.com/couchcryptid/airwatch-service/internal/pipeline"
)

const testTopic = "test-predictions"

// publishedMessage holds a deserialized message read from the prediction topic.
type publishedMessage struct {
	Decision domain.Decision
	Key      string
	Headers  map[string]string
}

// readPublished reads a single message from the consumer and deserializes it.
func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from prediction topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var d domain.Decision
	require.NoError(t, json.Unmarshal(msg.Value, &d), "unmarshal decision")

	return publishedMessage{Decision: d, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestWriterRoundTrip verifies kafka.Writer keys and headers decisions.
func TestWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	target := time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)
	want := domain.Decide(domain.DecisionInput{
		TargetDate:  target,
		Location:    "08901",
		Probability: 0.72,
		Threshold:   0.4,
		Features:    domain.Features{domain.FeatAQIPrev1: 95, domain.FeatWindAvg: 3},
	})
	require.NoError(t, writer.Publish(ctx, []domain.Decision{want}))

	pm := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "08901|2024-07-02", pm.Key)
	assert.Equal(t, "Unhealthy", pm.Headers[kafka.HeaderClassification])
	assert.Equal(t, "2024-07-02", pm.Headers[kafka.HeaderTargetDate])
	assert.Equal(t, want.Probability, pm.Decision.Probability)
	assert.Equal(t, want.Factors, pm.Decision.Factors)
	assert.True(t, want.TargetDate.Equal(pm.Decision.TargetDate))
}

// TestPublisherEndToEnd runs one publisher cycle against the real service
// with no upstream sources, so every location uses the serving defaults.
func TestPublisherEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	modelPath, featuresPath := writeModel(t)
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC))

	scorer := model.NewAdapter(model.FileLoader{ModelPath: modelPath, FeatureListPath: featuresPath}, discardLogger(), metrics)
	svc := pipeline.NewService(scorer, 0.4, cache.New(16, metrics), nil, nil, nil, clock, discardLogger(), metrics)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	locations := []string{"08901", "07102"}
	pub := pipeline.NewPublisher(svc, writer, locations, time.Hour, clock, discardLogger(), metrics)

	runCtx, runCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- pub.Run(runCtx) }()

	consumer := newConsumer(t, broker)
	got := map[string]publishedMessage{}
	for len(got) < len(locations) {
		pm := readPublished(ctx, t, consumer)
		got[pm.Decision.Location] = pm
	}

	runCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, pub.CheckReadiness(ctx))

	for _, zip := range locations {
		pm, ok := got[zip]
		require.True(t, ok, "missing decision for %s", zip)
		assert.Equal(t, zip+"|2024-07-02", pm.Key)
		assert.Equal(t, string(pm.Decision.Classification), pm.Headers[kafka.HeaderClassification])
		// Default current AQI of 50 gives sigmoid(-0.5).
		assert.InDelta(t, 0.3775, pm.Decision.Probability, 1e-4)
		assert.Equal(t, domain.Safe, pm.Decision.Classification)
	}
}
