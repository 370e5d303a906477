package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// customerNotifier renders a template for an order's customer and sends it.
// Customers without an email address are skipped.
type customerNotifier struct {
	customers catalog.CustomerRepository
	sender    NotificationSender
	renderer  *Renderer
	logger    *zap.Logger
}

func (n *customerNotifier) notify(ctx context.Context, tmpl string, orderID, customerID uuid.UUID, data TemplateData) error {
	customer, err := n.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			n.logger.Warn("customer of order no longer exists, notification skipped",
				zap.String("order_id", orderID.String()),
				zap.String("customer_id", customerID.String()),
			)
			return nil
		}
		return fmt.Errorf("load customer: %w", err)
	}
	if customer.Email == "" {
		n.logger.Debug("customer has no email, notification skipped",
			zap.String("order_id", orderID.String()),
			zap.String("template", tmpl),
		)
		return nil
	}

	data.OrderNumber = orderNumber(orderID)
	data.CustomerName = customer.Name
	subject, body, err := n.renderer.Render(tmpl, data)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, Message{To: []string{customer.Email}, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("send %s notification: %w", tmpl, err)
	}
	n.logger.Info("customer notified",
		zap.String("order_id", orderID.String()),
		zap.String("template", tmpl),
	)
	return nil
}

// Handlers builds the customer notification handlers
func Handlers(customers catalog.CustomerRepository, sender NotificationSender, renderer *Renderer, logger *zap.Logger) []shared.EventHandler {
	n := &customerNotifier{
		customers: customers,
		sender:    sender,
		renderer:  renderer,
		logger:    logger.Named("notification"),
	}
	return []shared.EventHandler{
		&OrderCreatedHandler{n},
		&BudgetReadyHandler{n},
		&OrderCompletedHandler{n},
	}
}

// OrderCreatedHandler confirms to the customer that the vehicle was received
type OrderCreatedHandler struct {
	*customerNotifier
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCreatedHandler) EventTypes() []string {
	return []string{serviceorder.EventTypeOrderCreated}
}

// Handle processes an OrderCreatedEvent
func (h *OrderCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*serviceorder.OrderCreatedEvent)
	if !ok {
		return unexpectedEvent(serviceorder.EventTypeOrderCreated, event)
	}
	return h.notify(ctx, TemplateOrderCreated, e.OrderID, e.CustomerID, TemplateData{})
}

// BudgetReadyHandler sends the budget to the customer for approval.
// A send failure is returned: the order stays AWAITING_APPROVAL and the caller sees the failed dispatch.
type BudgetReadyHandler struct {
	*customerNotifier
}

// EventTypes returns the event types this handler is interested in
func (h *BudgetReadyHandler) EventTypes() []string {
	return []string{serviceorder.EventTypeOrderBudgetReady}
}

// Handle processes an OrderBudgetReadyEvent
func (h *BudgetReadyHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*serviceorder.OrderBudgetReadyEvent)
	if !ok {
		return unexpectedEvent(serviceorder.EventTypeOrderBudgetReady, event)
	}
	return h.notify(ctx, TemplateBudgetReady, e.OrderID, e.CustomerID, TemplateData{
		Budget: e.Budget,
		SentAt: e.BudgetSentAt,
	})
}

// OrderCompletedHandler tells the customer the vehicle is ready
type OrderCompletedHandler struct {
	*customerNotifier
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCompletedHandler) EventTypes() []string {
	return []string{serviceorder.EventTypeOrderCompleted}
}

// Handle processes an OrderCompletedEvent
func (h *OrderCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*serviceorder.OrderCompletedEvent)
	if !ok {
		return unexpectedEvent(serviceorder.EventTypeOrderCompleted, event)
	}
	return h.notify(ctx, TemplateCompleted, e.OrderID, e.CustomerID, TemplateData{})
}

func unexpectedEvent(expected string, event shared.DomainEvent) error {
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

var (
	_ shared.EventHandler = (*OrderCreatedHandler)(nil)
	_ shared.EventHandler = (*BudgetReadyHandler)(nil)
	_ shared.EventHandler = (*OrderCompletedHandler)(nil)
)
