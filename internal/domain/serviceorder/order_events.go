package serviceorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeOrder = "ServiceOrder"

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderBudgetReady   = "OrderBudgetReady"
	EventTypeOrderCancelled     = "OrderCancelled"
	EventTypeOrderCompleted     = "OrderCompleted"
	EventTypeOrderBudgetExpired = "OrderBudgetExpired"
)

// OrderCreatedEvent is raised when a new order is opened
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	ServiceID  uuid.UUID `json:"service_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		VehicleID:       order.VehicleID,
		ServiceID:       order.ServiceID,
	}
}

// OrderStatusChangedEvent is raised on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID   `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		From:            from,
		To:              order.Status,
	}
}

// OrderBudgetReadyEvent is raised when the order enters AWAITING_APPROVAL.
// Consumers notify the customer that the budget is available.
type OrderBudgetReadyEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID         `json:"order_id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	Budget       valueobject.Money `json:"budget"`
	BudgetSentAt time.Time         `json:"budget_sent_at"`
}

// NewOrderBudgetReadyEvent creates a new OrderBudgetReadyEvent
func NewOrderBudgetReadyEvent(order *Order) *OrderBudgetReadyEvent {
	e := &OrderBudgetReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderBudgetReady, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
	}
	if order.Budget != nil {
		e.Budget = *order.Budget
	}
	if order.BudgetSentAt != nil {
		e.BudgetSentAt = *order.BudgetSentAt
	}
	return e
}

// OrderCancelledEvent is raised when the order enters CANCELLED.
// Supplies lists the allocations still holding stock at that moment.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID    `json:"order_id"`
	CustomerID uuid.UUID    `json:"customer_id"`
	Supplies   []SupplyLine `json:"supplies"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Supplies:        Lines(order.ActiveAllocations()),
	}
}

// OrderCompletedEvent is raised when the order enters COMPLETED
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(order *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
	}
}

// OrderBudgetExpiredEvent is raised when a pending budget expires.
// Supplies lists the allocations still holding stock at that moment.
type OrderBudgetExpiredEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID    `json:"order_id"`
	CustomerID uuid.UUID    `json:"customer_id"`
	Supplies   []SupplyLine `json:"supplies"`
}

// NewOrderBudgetExpiredEvent creates a new OrderBudgetExpiredEvent
func NewOrderBudgetExpiredEvent(order *Order) *OrderBudgetExpiredEvent {
	return &OrderBudgetExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderBudgetExpired, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Supplies:        Lines(order.ActiveAllocations()),
	}
}
