package serviceorder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter pages through order listings
type ListFilter struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the filter
func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the page size, defaulting to 20 and capped at 100
func (f ListFilter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return 20
	case f.PageSize > 100:
		return 100
	default:
		return f.PageSize
	}
}

// OrderRepository defines the interface for service order persistence
type OrderRepository interface {
	// FindByID loads an order with all of its allocations
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByStatus lists orders in a status, newest first
	FindByStatus(ctx context.Context, status OrderStatus, filter ListFilter) ([]Order, error)

	// FindBudgetsSentBefore lists AWAITING_APPROVAL orders whose budget was sent at or before cutoff
	FindBudgetsSentBefore(ctx context.Context, cutoff time.Time, limit int) ([]Order, error)

	// Save inserts a new order or updates an existing one together with its allocations.
	// Updates are conditional on order.Version; on success the version is incremented.
	Save(ctx context.Context, order *Order) error

	// Delete removes the order and its allocations
	Delete(ctx context.Context, id uuid.UUID) error
}
