package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies domain errors for callers and transport mapping
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindAlreadyAllocated    ErrorKind = "ALREADY_ALLOCATED"
	KindInsufficientStock   ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindBudgetExpired       ErrorKind = "BUDGET_EXPIRED"
	KindPersistence         ErrorKind = "PERSISTENCE"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
)

// HTTPStatus returns the status code a transport layer should answer with
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyAllocated, KindInsufficientStock, KindInvalidTransition,
		KindBudgetExpired, KindInvalidInput:
		return http.StatusBadRequest
	case KindConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError of the same kind.
// Code is compared only when the target carries a code different from its kind.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Code == "" || t.Code == string(t.Kind) {
		return true
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error whose code equals its kind
func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    string(kind),
		Message: message,
	}
}

// NewDomainErrorWithCode creates a domain error with a specific code inside a kind
func NewDomainErrorWithCode(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

// NewPersistenceError wraps a storage failure.
// Errors that already are domain errors are returned unchanged.
func NewPersistenceError(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewDomainError(KindPersistence, "persistence failure").WithCause(err)
}

// KindOf returns the kind of err, or an empty kind when err is not a domain error
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(KindNotFound, "Resource not found")
	ErrAlreadyAllocated    = NewDomainError(KindAlreadyAllocated, "Stock item already allocated to this order")
	ErrInsufficientStock   = NewDomainError(KindInsufficientStock, "Insufficient stock available")
	ErrInvalidTransition   = NewDomainError(KindInvalidTransition, "Status transition not allowed")
	ErrBudgetExpired       = NewDomainError(KindBudgetExpired, "Budget has expired")
	ErrPersistence         = NewDomainError(KindPersistence, "Persistence failure")
	ErrInvalidInput        = NewDomainError(KindInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(KindConcurrencyConflict, "Resource was modified by another process")
)

// SideEffectError reports that a state change committed but an event handler failed afterwards
type SideEffectError struct {
	EventType string
	Handler   string
	Err       error
}

// Error implements the error interface
func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s for event %s failed: %v", e.Handler, e.EventType, e.Err)
}

// Unwrap returns the handler error
func (e *SideEffectError) Unwrap() error {
	return e.Err
}
