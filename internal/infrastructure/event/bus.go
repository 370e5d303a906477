package event

import (
	"context"
	"fmt"
	"reflect"

	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DispatchObserver is notified about every handler invocation
type DispatchObserver interface {
	HandlerSucceeded(ctx context.Context, eventType, handler string)
	HandlerFailed(ctx context.Context, eventType, handler string)
}

// InMemoryEventBus implements EventBus with synchronous in-process delivery.
//
// Handlers run in registration order on the publishing goroutine. The first handler
// error (or panic) stops the dispatch: later handlers and later events are skipped,
// and the failure is returned in the DispatchResult.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	observer DispatchObserver
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// WithObserver sets an observer for handler outcomes
func (b *InMemoryEventBus) WithObserver(observer DispatchObserver) *InMemoryEventBus {
	b.observer = observer
	return b
}

// Publish delivers events to their handlers synchronously and in registration order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) shared.DispatchResult {
	var result shared.DispatchResult

	for i, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			name := handlerName(handler)
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.failureLogger(ctx).Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("handler", name),
					zap.Error(err),
				)
				if b.observer != nil {
					b.observer.HandlerFailed(ctx, event.EventType(), name)
				}
				result.Failure = &shared.DispatchFailure{
					EventID:   event.EventID(),
					EventType: event.EventType(),
					Handler:   name,
					Err:       err,
				}
				result.Undelivered = append(result.Undelivered, events[i+1:]...)
				return result
			}
			if b.observer != nil {
				b.observer.HandlerSucceeded(ctx, event.EventType(), name)
			}
			result.Delivered++
		}
	}
	return result
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	// If handler specifies its own event types, use those
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.String("handler", handlerName(handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed", zap.String("handler", handlerName(handler)))
}

// Start reports the subscriptions. Publish does not depend on it; the bus delivers as soon as handlers subscribe.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("event bus started", zap.Int("subscriptions", b.registry.Len()))
	return nil
}

// Stop stops the event bus. Delivery is synchronous, so nothing is in flight once publishers return.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.logger.Info("event bus stopped")
	return nil
}

// failureLogger carries the trace and correlation ids of the publishing operation
func (b *InMemoryEventBus) failureLogger(ctx context.Context) *zap.Logger {
	log := logger.WithTraceContext(ctx, b.logger)
	if id := logger.GetCorrelationID(ctx); id != "" {
		log = log.With(zap.String("correlation_id", id))
	}
	return log
}

// dispatchToHandler safely dispatches an event to a handler, turning a panic into an error
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

// handlerName returns the handler's type name for logs and results
func handlerName(handler shared.EventHandler) string {
	t := reflect.TypeOf(handler)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
