package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// DispatchFailure describes the handler error that stopped a dispatch
type DispatchFailure struct {
	EventID   uuid.UUID
	EventType string
	Handler   string
	Err       error
}

// DispatchResult is the outcome of publishing one or more events.
// Dispatch stops at the first failing handler: handlers registered after it,
// and events published after the failing one, are not delivered.
type DispatchResult struct {
	// Delivered counts successful handler invocations
	Delivered int
	// Failure is nil when every handler succeeded
	Failure *DispatchFailure
	// Undelivered lists events that were not dispatched because of an earlier failure
	Undelivered []DomainEvent
}

// Failed reports whether a handler failed
func (r DispatchResult) Failed() bool {
	return r.Failure != nil
}

// Err returns the failure as a *SideEffectError, or nil
func (r DispatchResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return &SideEffectError{
		EventType: r.Failure.EventType,
		Handler:   r.Failure.Handler,
		Err:       r.Failure.Err,
	}
}

// Merge folds other into r; the earliest failure wins
func (r DispatchResult) Merge(other DispatchResult) DispatchResult {
	r.Delivered += other.Delivered
	if r.Failure == nil {
		r.Failure = other.Failure
	}
	r.Undelivered = append(r.Undelivered, other.Undelivered...)
	return r
}

// String renders a short summary for logs
func (r DispatchResult) String() string {
	if r.Failure == nil {
		return fmt.Sprintf("delivered=%d", r.Delivered)
	}
	return fmt.Sprintf("delivered=%d failed=%s/%s: %v", r.Delivered, r.Failure.EventType, r.Failure.Handler, r.Failure.Err)
}
