package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is the outbound event port. The engine publishes fire-and-forget;
// downstream consumers (notification, broadcast) own their delivery semantics.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, data any) error
}

// KafkaProducer publishes CloudEvents to Kafka.
type KafkaProducer struct {
	writer *kafkago.Writer
	source string
	logger *zap.Logger
}

// NewKafkaProducer creates a producer for the given brokers.
func NewKafkaProducer(brokers []string, source string, logger *zap.Logger) *KafkaProducer {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}
	return &KafkaProducer{writer: writer, source: source, logger: logger}
}

// Publish wraps the payload in a CloudEvent, keyed by event type, and writes
// it to the topic.
func (p *KafkaProducer) Publish(ctx context.Context, topic, eventType string, data any) error {
	event, err := NewCloudEvent(p.source, eventType, data)
	if err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(eventType),
		Value: value,
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", eventType),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", eventType),
		zap.String("id", event.ID),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when Kafka is not configured.
type NoopPublisher struct{}

// Publish discards the event.
func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }
