package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
)

// Envelope is the wire form of a domain event for external consumers
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// EventSerializer handles JSON serialization/deserialization of domain events
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type // eventType -> Go type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewDomainEventSerializer creates a serializer that knows every service order and stock event
func NewDomainEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(serviceorder.EventTypeOrderCreated, &serviceorder.OrderCreatedEvent{})
	s.Register(serviceorder.EventTypeOrderStatusChanged, &serviceorder.OrderStatusChangedEvent{})
	s.Register(serviceorder.EventTypeOrderBudgetReady, &serviceorder.OrderBudgetReadyEvent{})
	s.Register(serviceorder.EventTypeOrderCancelled, &serviceorder.OrderCancelledEvent{})
	s.Register(serviceorder.EventTypeOrderCompleted, &serviceorder.OrderCompletedEvent{})
	s.Register(serviceorder.EventTypeOrderBudgetExpired, &serviceorder.OrderBudgetExpiredEvent{})
	s.Register(stock.EventTypeStockDebited, &stock.StockDebitedEvent{})
	s.Register(stock.EventTypeStockCredited, &stock.StockCreditedEvent{})
	s.Register(stock.EventTypeStockBelowMinimum, &stock.StockBelowMinimumEvent{})
	return s
}

// Register registers an event type for deserialization
// The eventType should match what EventType() returns on the event
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// SerializeEnvelope wraps the event in an Envelope and serializes it
func (s *EventSerializer) SerializeEnvelope(event shared.DomainEvent) ([]byte, error) {
	payload, err := s.Serialize(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return json.Marshal(Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	})
}

// Deserialize deserializes JSON bytes to a domain event
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	// Create new instance of the registered type
	eventPtr := reflect.New(t).Interface()

	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}

	return event, nil
}

// DeserializeEnvelope decodes an Envelope and its payload
func (s *EventSerializer) DeserializeEnvelope(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return s.Deserialize(env.EventType, env.Payload)
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
