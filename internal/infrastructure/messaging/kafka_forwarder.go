// Package messaging forwards domain events to Kafka as integration messages.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/oficina/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Message header keys
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderAggregateType = "aggregate_type"
)

// MessageWriter is the part of kafka.Writer the forwarder uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventForwarder publishes every domain event to one topic.
// Messages are keyed by aggregate id so the events of one order or stock item stay ordered.
type KafkaEventForwarder struct {
	writer     MessageWriter
	serializer *event.EventSerializer
	propagator propagation.TextMapPropagator
	logger     *zap.Logger
}

// NewKafkaWriter creates a synchronous writer for the configured topic
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewKafkaEventForwarder creates a new forwarder
func NewKafkaEventForwarder(writer MessageWriter, serializer *event.EventSerializer, logger *zap.Logger) *KafkaEventForwarder {
	return &KafkaEventForwarder{
		writer:     writer,
		serializer: serializer,
		propagator: otel.GetTextMapPropagator(),
		logger:     logger.Named("kafka"),
	}
}

// EventTypes returns nil: the forwarder receives every event
func (f *KafkaEventForwarder) EventTypes() []string {
	return nil
}

// Handle writes the event as a JSON envelope
func (f *KafkaEventForwarder) Handle(ctx context.Context, e shared.DomainEvent) error {
	msg, err := f.message(ctx, e)
	if err != nil {
		return err
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.logger.Error("failed to forward event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("forward %s to kafka: %w", e.EventType(), err)
	}
	f.logger.Debug("event forwarded",
		zap.String("event_type", e.EventType()),
		zap.String("aggregate_id", e.AggregateID().String()),
	)
	return nil
}

func (f *KafkaEventForwarder) message(ctx context.Context, e shared.DomainEvent) (kafka.Message, error) {
	value, err := f.serializer.SerializeEnvelope(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serialize %s: %w", e.EventType(), err)
	}

	carrier := propagation.MapCarrier{}
	f.propagator.Inject(ctx, carrier)

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(e.EventType())},
		{Key: HeaderEventID, Value: []byte(e.EventID().String())},
		{Key: HeaderAggregateType, Value: []byte(e.AggregateType())},
	}
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Key:     []byte(e.AggregateID().String()),
		Value:   value,
		Time:    e.OccurredAt(),
		Headers: headers,
	}, nil
}

// Close flushes and closes the writer
func (f *KafkaEventForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaEventForwarder)(nil)
