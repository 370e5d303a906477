package event

import (
	"sync"

	"github.com/oficina/backend/internal/domain/shared"
)

// subscription binds a handler to the event types it receives.
// An empty type set means the handler receives every event.
type subscription struct {
	handler    shared.EventHandler
	eventTypes map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if len(s.eventTypes) == 0 {
		return true
	}
	_, ok := s.eventTypes[eventType]
	return ok
}

// HandlerRegistry manages event handler registrations.
// Handlers are returned in registration order, wildcard handlers included.
type HandlerRegistry struct {
	mu            sync.RWMutex
	subscriptions []subscription
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		subscriptions: make([]subscription, 0),
	}
}

// Register adds a handler for specific event types
// If no event types are provided, the handler receives all events
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}
	r.subscriptions = append(r.subscriptions, subscription{handler: handler, eventTypes: types})
}

// Unregister removes a handler from all event types
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]subscription, 0, len(r.subscriptions))
	for _, s := range r.subscriptions {
		if s.handler != handler {
			kept = append(kept, s)
		}
	}
	r.subscriptions = kept
}

// GetHandlers returns the handlers for an event type in registration order.
// The returned slice is a snapshot; handlers may publish or subscribe while it is in use.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subscriptions))
	for _, s := range r.subscriptions {
		if s.matches(eventType) {
			result = append(result, s.handler)
		}
	}
	return result
}

// Len returns the number of subscriptions
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscriptions)
}
