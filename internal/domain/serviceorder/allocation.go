package serviceorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// SupplyAllocation is a quantity of a stock item committed to one order.
// It is never edited in place: returning it to stock flips Active to false,
// and a different quantity is a new allocation.
type SupplyAllocation struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	StockItemID uuid.UUID
	Quantity    int
	UnitPrice   valueobject.Money // price of the stock item when allocated
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subtotal returns Quantity x UnitPrice
func (a SupplyAllocation) Subtotal() valueobject.Money {
	return a.UnitPrice.MultiplyByInt(int64(a.Quantity))
}

// SupplyLine is a (stock item, quantity) pair used for allocation requests and stock returns
type SupplyLine struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Quantity    int       `json:"quantity"`
}

// Lines converts allocations to supply lines
func Lines(allocations []SupplyAllocation) []SupplyLine {
	lines := make([]SupplyLine, 0, len(allocations))
	for _, a := range allocations {
		lines = append(lines, SupplyLine{StockItemID: a.StockItemID, Quantity: a.Quantity})
	}
	return lines
}
