package serviceorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// Order is a repair ticket for one customer's vehicle.
// It is the aggregate root for the service order lifecycle and owns its allocations.
type Order struct {
	shared.BaseAggregateRoot
	CustomerID   uuid.UUID
	VehicleID    uuid.UUID
	ServiceID    uuid.UUID
	Description  string
	Status       OrderStatus
	Budget       *valueobject.Money
	BudgetSentAt *time.Time
	Active       bool
	Allocations  []SupplyAllocation
}

// NewOrder creates a new order in RECEIVED status
func NewOrder(customerID, vehicleID, serviceID uuid.UUID, description string) (*Order, error) {
	if customerID == uuid.Nil || vehicleID == uuid.Nil || serviceID == uuid.Nil {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_REFERENCE",
			"Customer, vehicle and service are required")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		VehicleID:         vehicleID,
		ServiceID:         serviceID,
		Description:       description,
		Status:            OrderStatusReceived,
		Active:            true,
		Allocations:       make([]SupplyAllocation, 0),
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// SetDescription replaces the free-text description
func (o *Order) SetDescription(description string) {
	o.Description = description
	o.Touch()
}

// ChangeStatus moves the order to target following the transition table.
// Entering AWAITING_APPROVAL needs a budget and goes through SubmitBudget instead.
func (o *Order) ChangeStatus(target OrderStatus) error {
	if target == OrderStatusAwaitingApproval {
		return invalidTransition(o.Status, target)
	}
	if err := o.checkTransition(target); err != nil {
		return err
	}
	o.moveTo(target)
	return nil
}

// SubmitBudget computes the budget from servicePrice and the active allocations,
// stamps BudgetSentAt and moves the order to AWAITING_APPROVAL.
func (o *Order) SubmitBudget(servicePrice valueobject.Money, now time.Time) error {
	if err := o.checkTransition(OrderStatusAwaitingApproval); err != nil {
		return err
	}
	budget, err := CalculateBudget(servicePrice, o.Allocations)
	if err != nil {
		return shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_BUDGET", "Cannot compute budget").WithCause(err)
	}

	o.Budget = &budget
	o.BudgetSentAt = &now
	o.moveTo(OrderStatusAwaitingApproval)
	return nil
}

// AcceptBudget approves the pending budget and starts execution
func (o *Order) AcceptBudget() error {
	if err := o.checkBudgetDecision(OrderStatusInExecution); err != nil {
		return err
	}
	o.moveTo(OrderStatusInExecution)
	return nil
}

// RejectBudget refuses the pending budget, cancelling the order
func (o *Order) RejectBudget() error {
	if err := o.checkBudgetDecision(OrderStatusCancelled); err != nil {
		return err
	}
	o.moveTo(OrderStatusCancelled)
	return nil
}

// ExpireBudget marks a pending budget as expired
func (o *Order) ExpireBudget() error {
	if o.Status != OrderStatusAwaitingApproval {
		return invalidTransition(o.Status, OrderStatusBudgetExpired)
	}
	o.moveTo(OrderStatusBudgetExpired)
	return nil
}

// BudgetExpiredAt reports whether the budget was sent at or before cutoff
func (o *Order) BudgetExpiredAt(cutoff time.Time) bool {
	return o.Status == OrderStatusAwaitingApproval && o.BudgetSentAt != nil && !o.BudgetSentAt.After(cutoff)
}

// CanAllocate reports whether supplies may still be assigned to the order
func (o *Order) CanAllocate() error {
	if o.Status.IsTerminal() {
		return shared.NewDomainErrorWithCode(shared.KindInvalidTransition, "ORDER_CLOSED",
			fmt.Sprintf("Cannot allocate supplies to order in %s status", o.Status))
	}
	return nil
}

// HasActiveAllocation reports whether the stock item is already allocated to the order
func (o *Order) HasActiveAllocation(stockItemID uuid.UUID) bool {
	for _, a := range o.Allocations {
		if a.Active && a.StockItemID == stockItemID {
			return true
		}
	}
	return false
}

// ActiveAllocations returns the allocations that still hold stock
func (o *Order) ActiveAllocations() []SupplyAllocation {
	active := make([]SupplyAllocation, 0, len(o.Allocations))
	for _, a := range o.Allocations {
		if a.Active {
			active = append(active, a)
		}
	}
	return active
}

// AddAllocation records that quantity units of a stock item were debited for this order.
// The caller is responsible for the matching stock debit.
func (o *Order) AddAllocation(stockItemID uuid.UUID, quantity int, unitPrice valueobject.Money) (*SupplyAllocation, error) {
	if err := o.CanAllocate(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_QUANTITY", "Allocation quantity must be positive")
	}
	if o.HasActiveAllocation(stockItemID) {
		return nil, AlreadyAllocatedError(o.ID, stockItemID)
	}

	now := time.Now()
	allocation := SupplyAllocation{
		ID:          uuid.New(),
		OrderID:     o.ID,
		StockItemID: stockItemID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.Allocations = append(o.Allocations, allocation)
	o.Touch()
	return &o.Allocations[len(o.Allocations)-1], nil
}

// RemoveAllocation deactivates the active allocation for a stock item and returns it.
// The caller is responsible for crediting the stock back.
func (o *Order) RemoveAllocation(stockItemID uuid.UUID) (*SupplyAllocation, error) {
	if err := o.CanAllocate(); err != nil {
		return nil, err
	}
	for i := range o.Allocations {
		a := &o.Allocations[i]
		if a.Active && a.StockItemID == stockItemID {
			a.Active = false
			a.UpdatedAt = time.Now()
			o.Touch()
			return a, nil
		}
	}
	return nil, shared.NewDomainErrorWithCode(shared.KindNotFound, "ALLOCATION_NOT_FOUND",
		fmt.Sprintf("Stock item %s is not allocated to order %s", stockItemID, o.ID))
}

// ReleaseAllocations deactivates every active allocation and returns the released ones.
// Calling it again returns nothing, so each allocation is released at most once.
func (o *Order) ReleaseAllocations() []SupplyAllocation {
	now := time.Now()
	released := make([]SupplyAllocation, 0)
	for i := range o.Allocations {
		a := &o.Allocations[i]
		if !a.Active {
			continue
		}
		a.Active = false
		a.UpdatedAt = now
		released = append(released, *a)
	}
	if len(released) > 0 {
		o.Touch()
	}
	return released
}

func (o *Order) checkTransition(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return invalidTransition(o.Status, target)
	}
	return nil
}

func (o *Order) checkBudgetDecision(target OrderStatus) error {
	switch o.Status {
	case OrderStatusAwaitingApproval:
		return nil
	case OrderStatusBudgetExpired:
		return shared.NewDomainError(shared.KindBudgetExpired,
			fmt.Sprintf("Budget of order %s has expired", o.ID))
	default:
		return invalidTransition(o.Status, target)
	}
}

func (o *Order) moveTo(target OrderStatus) {
	from := o.Status
	o.Status = target
	o.Touch()

	switch target {
	case OrderStatusAwaitingApproval:
		o.AddDomainEvent(NewOrderBudgetReadyEvent(o))
	case OrderStatusCancelled:
		o.AddDomainEvent(NewOrderCancelledEvent(o))
	case OrderStatusCompleted:
		o.AddDomainEvent(NewOrderCompletedEvent(o))
	case OrderStatusBudgetExpired:
		o.AddDomainEvent(NewOrderBudgetExpiredEvent(o))
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
}

func invalidTransition(from, to OrderStatus) *shared.DomainError {
	return shared.NewDomainError(shared.KindInvalidTransition,
		fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}

// NotFoundError is returned when an order does not exist
func NotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorWithCode(shared.KindNotFound, "ORDER_NOT_FOUND", fmt.Sprintf("Order %s not found", id))
}

// AlreadyAllocatedError is returned when a stock item already has an active allocation on the order
func AlreadyAllocatedError(orderID, stockItemID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(shared.KindAlreadyAllocated,
		fmt.Sprintf("Stock item %s is already allocated to order %s", stockItemID, orderID))
}
