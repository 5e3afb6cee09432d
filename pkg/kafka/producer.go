package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

// Streams the searcher writes. A stream names what flows through a topic, so
// logs and metrics stay readable when topic names are environment specific.
const (
	StreamIngest    = "ingest"
	StreamAnalytics = "analytics"
)

// Event is one message. Key picks the partition: ingest events are keyed by
// shard so a shard's documents stay ordered, analytics events share one key.
type Event struct {
	Key   string
	Value any
}

// Publisher is the write side used by the searcher: document ingestion and
// analytics events. *Producer implements it, and so does the in-process
// analytics aggregator when Kafka is disabled.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, events []Event) error
}

// Producer publishes JSON-encoded events for one stream.
type Producer struct {
	writer  *kafka.Writer
	stream  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithProducerMetrics counts published messages per stream.
func WithProducerMetrics(m *metrics.Metrics) ProducerOption {
	return func(p *Producer) { p.metrics = m }
}

// NewProducer creates a Producer writing stream's events to topic.
func NewProducer(cfg config.KafkaConfig, stream, topic string, opts ...ProducerOption) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	p := &Producer{
		writer: w,
		stream: stream,
		logger: slog.Default().With("component", "kafka-producer", "stream", stream, "topic", topic),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes a single event synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.count("error", 1)
		p.logger.Error("publish failed", "key", event.Key, "error", err)
		return fmt.Errorf("publishing %s event: %w", p.stream, err)
	}
	p.count("ok", 1)
	p.logger.Debug("event published", "key", event.Key, "bytes", len(msg.Value))
	return nil
}

// PublishBatch writes events in one call. Nothing is written if any event
// fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	messages, size, err := encodeBatch(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.count("error", len(messages))
		p.logger.Error("batch publish failed", "events", len(messages), "error", err)
		return fmt.Errorf("publishing %d %s events: %w", len(messages), p.stream, err)
	}
	p.count("ok", len(messages))
	p.logger.Debug("batch published", "events", len(messages), "bytes", size)
	return nil
}

func (p *Producer) count(status string, n int) {
	if p.metrics != nil {
		p.metrics.KafkaMessagesTotal.WithLabelValues(p.stream, status).Add(float64(n))
	}
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding event %q: %w", event.Key, err)
	}
	return kafka.Message{Key: []byte(event.Key), Value: value}, nil
}

func encodeBatch(events []Event) ([]kafka.Message, int, error) {
	messages := make([]kafka.Message, 0, len(events))
	size := 0
	for _, event := range events {
		msg, err := encode(event)
		if err != nil {
			return nil, 0, err
		}
		size += len(msg.Value)
		messages = append(messages, msg)
	}
	return messages, size, nil
}
