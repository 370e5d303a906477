package stock

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// StockItem is an inventory line (part or consumable) shared by many service orders.
// QuantityAvailable is changed only through Debit and Credit.
type StockItem struct {
	shared.BaseAggregateRoot
	Name              string
	Description       string
	UnitPrice         valueobject.Money
	QuantityAvailable int
	QuantityMinimum   int
	Active            bool
}

// NewStockItem creates an active stock item
func NewStockItem(name, description string, unitPrice valueobject.Money, available, minimum int) (*StockItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_NAME", "Stock item name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_PRICE", "Unit price cannot be negative")
	}
	if available < 0 || minimum < 0 {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_QUANTITY", "Quantities cannot be negative")
	}

	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		UnitPrice:         unitPrice,
		QuantityAvailable: available,
		QuantityMinimum:   minimum,
		Active:            true,
	}, nil
}

// Debit removes quantity from the available stock.
// It refuses to take the available quantity below zero.
func (s *StockItem) Debit(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_QUANTITY", "Debit quantity must be positive")
	}
	if quantity > s.QuantityAvailable {
		return InsufficientStockError(s.ID, quantity, s.QuantityAvailable)
	}

	s.QuantityAvailable -= quantity
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockDebitedEvent(s, quantity))
	s.checkMinimum()
	return nil
}

// Credit returns quantity to the available stock. There is no upper bound.
func (s *StockItem) Credit(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_QUANTITY", "Credit quantity must be positive")
	}

	s.QuantityAvailable += quantity
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockCreditedEvent(s, quantity))
	s.checkMinimum()
	return nil
}

// CanFulfill reports whether quantity can be debited right now
func (s *StockItem) CanFulfill(quantity int) bool {
	return quantity <= s.QuantityAvailable
}

// IsAtOrBelowMinimum reports the low-stock condition
func (s *StockItem) IsAtOrBelowMinimum() bool {
	return s.QuantityAvailable <= s.QuantityMinimum
}

// Deactivate hides the item from allocation
func (s *StockItem) Deactivate() {
	if !s.Active {
		return
	}
	s.Active = false
	s.Touch()
	s.IncrementVersion()
}

func (s *StockItem) checkMinimum() {
	if s.IsAtOrBelowMinimum() {
		s.AddDomainEvent(NewStockBelowMinimumEvent(s))
	}
}

// NotFoundError is returned when a stock item does not exist or is inactive
func NotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorWithCode(shared.KindNotFound, "STOCK_ITEM_NOT_FOUND",
		fmt.Sprintf("Stock item %s not found", id))
}

// InsufficientStockError is returned when a debit exceeds the available quantity
func InsufficientStockError(id uuid.UUID, requested, available int) *shared.DomainError {
	return shared.NewDomainError(shared.KindInsufficientStock,
		fmt.Sprintf("Insufficient stock for item %s: requested %d, available %d", id, requested, available))
}
