package stock

import (
	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockItem = "StockItem"

// Event type constants
const (
	EventTypeStockDebited      = "StockDebited"
	EventTypeStockCredited     = "StockCredited"
	EventTypeStockBelowMinimum = "StockBelowMinimum"
)

// StockDebitedEvent is raised when stock leaves the shelf for a service order
type StockDebitedEvent struct {
	shared.BaseDomainEvent
	StockItemID       uuid.UUID `json:"stock_item_id"`
	Quantity          int       `json:"quantity"`
	QuantityAvailable int       `json:"quantity_available"`
}

// NewStockDebitedEvent creates a new StockDebitedEvent
func NewStockDebitedEvent(item *StockItem, quantity int) *StockDebitedEvent {
	return &StockDebitedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockDebited, AggregateTypeStockItem, item.ID),
		StockItemID:       item.ID,
		Quantity:          quantity,
		QuantityAvailable: item.QuantityAvailable,
	}
}

// StockCreditedEvent is raised when stock is returned to the shelf
type StockCreditedEvent struct {
	shared.BaseDomainEvent
	StockItemID       uuid.UUID `json:"stock_item_id"`
	Quantity          int       `json:"quantity"`
	QuantityAvailable int       `json:"quantity_available"`
}

// NewStockCreditedEvent creates a new StockCreditedEvent
func NewStockCreditedEvent(item *StockItem, quantity int) *StockCreditedEvent {
	return &StockCreditedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockCredited, AggregateTypeStockItem, item.ID),
		StockItemID:       item.ID,
		Quantity:          quantity,
		QuantityAvailable: item.QuantityAvailable,
	}
}

// StockBelowMinimumEvent is raised when available stock is at or below the item's minimum
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	StockItemID       uuid.UUID `json:"stock_item_id"`
	Name              string    `json:"name"`
	QuantityAvailable int       `json:"quantity_available"`
	QuantityMinimum   int       `json:"quantity_minimum"`
}

// NewStockBelowMinimumEvent creates a new StockBelowMinimumEvent
func NewStockBelowMinimumEvent(item *StockItem) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, AggregateTypeStockItem, item.ID),
		StockItemID:       item.ID,
		Name:              item.Name,
		QuantityAvailable: item.QuantityAvailable,
		QuantityMinimum:   item.QuantityMinimum,
	}
}
