package serviceorder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplyReleaser returns an order's allocated supplies to stock
type SupplyReleaser interface {
	ReleaseOrderSupplies(ctx context.Context, orderID uuid.UUID) (*ReleaseResult, error)
}

// supplyReturner is shared by the handlers of every status that closes an order while it may hold stock
type supplyReturner struct {
	releaser SupplyReleaser
	logger   *zap.Logger
}

// returnSupplies releases the order's active allocations.
// A failed release is returned so the caller learns the transition left stock behind.
func (r *supplyReturner) returnSupplies(ctx context.Context, orderID uuid.UUID, expected int, reason string) error {
	log := r.logger.With(
		zap.String("order_id", orderID.String()),
		zap.String("reason", reason),
	)
	log.Info("returning order supplies to stock", zap.Int("supplies_count", expected))

	result, err := r.releaser.ReleaseOrderSupplies(ctx, orderID)
	if err != nil {
		log.Error("failed to return order supplies", zap.Error(err))
		return fmt.Errorf("failed to return supplies to stock: %w", err)
	}

	// Stock is already credited; a failing stock handler (alerts, forwarding) is only reported.
	if result.Dispatch.Failed() {
		log.Warn("stock side effect failed after supply return", zap.Error(result.Dispatch.Err()))
	}

	if len(result.Released) == 0 && expected > 0 {
		log.Warn("no active allocations found", zap.Int("expected_supplies", expected))
	}

	log.Info("order supplies returned to stock", zap.Int("allocations_released", len(result.Released)))
	return nil
}

func unexpectedOrderEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

// OrderCancelledHandler handles OrderCancelledEvent
// and returns every active supply allocation of the cancelled order to stock
type OrderCancelledHandler struct {
	*supplyReturner
}

// NewOrderCancelledHandler creates a new handler for order cancelled events
func NewOrderCancelledHandler(releaser SupplyReleaser, logger *zap.Logger) *OrderCancelledHandler {
	return &OrderCancelledHandler{&supplyReturner{releaser: releaser, logger: logger}}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCancelledHandler) EventTypes() []string {
	return []string{serviceorder.EventTypeOrderCancelled}
}

// Handle processes an OrderCancelledEvent
func (h *OrderCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelled, ok := event.(*serviceorder.OrderCancelledEvent)
	if !ok {
		return unexpectedOrderEvent(h.logger, serviceorder.EventTypeOrderCancelled, event)
	}
	return h.returnSupplies(ctx, cancelled.OrderID, len(cancelled.Supplies), "cancelled")
}

// OrderBudgetExpiredHandler handles OrderBudgetExpiredEvent.
// An expired order is closed for good, so its supplies go back to stock like a cancellation's.
type OrderBudgetExpiredHandler struct {
	*supplyReturner
}

// NewOrderBudgetExpiredHandler creates a new handler for budget expired events
func NewOrderBudgetExpiredHandler(releaser SupplyReleaser, logger *zap.Logger) *OrderBudgetExpiredHandler {
	return &OrderBudgetExpiredHandler{&supplyReturner{releaser: releaser, logger: logger}}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderBudgetExpiredHandler) EventTypes() []string {
	return []string{serviceorder.EventTypeOrderBudgetExpired}
}

// Handle processes an OrderBudgetExpiredEvent
func (h *OrderBudgetExpiredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	expired, ok := event.(*serviceorder.OrderBudgetExpiredEvent)
	if !ok {
		return unexpectedOrderEvent(h.logger, serviceorder.EventTypeOrderBudgetExpired, event)
	}
	return h.returnSupplies(ctx, expired.OrderID, len(expired.Supplies), "budget_expired")
}

var (
	_ shared.EventHandler = (*OrderCancelledHandler)(nil)
	_ shared.EventHandler = (*OrderBudgetExpiredHandler)(nil)
)
