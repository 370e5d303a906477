package serviceorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// CreateOrderRequest represents a request to open a service order
type CreateOrderRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" validate:"required"`
	VehicleID   uuid.UUID `json:"vehicle_id" validate:"required"`
	ServiceID   uuid.UUID `json:"service_id" validate:"required"`
	Description string    `json:"description" validate:"max=2000"`
}

// UpdateOrderRequest is a partial update; nil fields are left unchanged
type UpdateOrderRequest struct {
	Description *string                   `json:"description" validate:"omitempty,max=2000"`
	Status      *serviceorder.OrderStatus `json:"status" validate:"omitempty,oneof=RECEIVED DIAGNOSING AWAITING_APPROVAL IN_EXECUTION COMPLETED CANCELLED BUDGET_EXPIRED"`
}

// IsEmpty reports whether the request changes nothing
func (r UpdateOrderRequest) IsEmpty() bool {
	return r.Description == nil && r.Status == nil
}

// SupplyInput is one line of an allocation request
type SupplyInput struct {
	StockItemID uuid.UUID `json:"stock_item_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"gt=0"`
}

// AllocateSuppliesRequest asks for stock items to be assigned to an order
type AllocateSuppliesRequest struct {
	Supplies []SupplyInput `json:"supplies" validate:"required,min=1,dive"`
}

// AllocationResponse represents a supply allocation in API responses
type AllocationResponse struct {
	ID          uuid.UUID         `json:"id"`
	StockItemID uuid.UUID         `json:"stock_item_id"`
	Quantity    int               `json:"quantity"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Subtotal    valueobject.Money `json:"subtotal"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderResponse represents a service order in API responses
type OrderResponse struct {
	ID           uuid.UUID                `json:"id"`
	CustomerID   uuid.UUID                `json:"customer_id"`
	VehicleID    uuid.UUID                `json:"vehicle_id"`
	ServiceID    uuid.UUID                `json:"service_id"`
	Description  string                   `json:"description"`
	Status       serviceorder.OrderStatus `json:"status"`
	Budget       *valueobject.Money       `json:"budget,omitempty"`
	BudgetSentAt *time.Time               `json:"budget_sent_at,omitempty"`
	Active       bool                     `json:"active"`
	Allocations  []AllocationResponse     `json:"allocations"`
	Version      int                      `json:"version"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// ToOrderResponse converts the domain order to a response DTO
func ToOrderResponse(order *serviceorder.Order) OrderResponse {
	allocations := make([]AllocationResponse, len(order.Allocations))
	for i, a := range order.Allocations {
		allocations[i] = AllocationResponse{
			ID:          a.ID,
			StockItemID: a.StockItemID,
			Quantity:    a.Quantity,
			UnitPrice:   a.UnitPrice,
			Subtotal:    a.Subtotal(),
			Active:      a.Active,
			CreatedAt:   a.CreatedAt,
		}
	}
	return OrderResponse{
		ID:           order.ID,
		CustomerID:   order.CustomerID,
		VehicleID:    order.VehicleID,
		ServiceID:    order.ServiceID,
		Description:  order.Description,
		Status:       order.Status,
		Budget:       order.Budget,
		BudgetSentAt: order.BudgetSentAt,
		Active:       order.Active,
		Allocations:  allocations,
		Version:      order.Version,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// ToOrderResponses converts a list of orders
func ToOrderResponses(orders []serviceorder.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}

// TransitionResult is the outcome of a committed order operation.
// Dispatch reports whether every event handler ran successfully afterwards.
type TransitionResult struct {
	Order    OrderResponse
	Dispatch shared.DispatchResult
}

// SideEffectError returns the handler failure, or nil when every side effect succeeded
func (r *TransitionResult) SideEffectError() *shared.SideEffectError {
	if r == nil || !r.Dispatch.Failed() {
		return nil
	}
	err, _ := r.Dispatch.Err().(*shared.SideEffectError)
	return err
}

// ReleaseResult is the outcome of returning an order's supplies to stock
type ReleaseResult struct {
	OrderID  uuid.UUID
	Released []serviceorder.SupplyLine
	Dispatch shared.DispatchResult
}
