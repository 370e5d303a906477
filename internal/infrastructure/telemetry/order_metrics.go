package telemetry

import (
	"context"

	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderMetrics counts order transitions, stock movements and handler outcomes.
// It is both a wildcard event handler and the bus's dispatch observer.
type OrderMetrics struct {
	transitions     metric.Int64Counter
	stockDebited    metric.Int64Counter
	stockCredited   metric.Int64Counter
	lowStock        metric.Int64Counter
	handlerRuns     metric.Int64Counter
	handlerFailures metric.Int64Counter
}

// NewOrderMetrics creates the instruments on meter
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	m := &OrderMetrics{}
	counters := []struct {
		dst        *metric.Int64Counter
		name, desc string
		unit       string
	}{
		{&m.transitions, "oficina_order_transitions_total", "Service order status transitions by target status", "{transition}"},
		{&m.stockDebited, "oficina_stock_debited_units_total", "Units debited from stock", "{unit}"},
		{&m.stockCredited, "oficina_stock_credited_units_total", "Units credited back to stock", "{unit}"},
		{&m.lowStock, "oficina_stock_below_minimum_total", "Times a stock item reached its minimum", "{event}"},
		{&m.handlerRuns, "oficina_event_handler_runs_total", "Event handler invocations", "{run}"},
		{&m.handlerFailures, "oficina_event_handler_failures_total", "Event handler failures", "{failure}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

// EventTypes returns nil: the metrics handler receives every event
func (m *OrderMetrics) EventTypes() []string {
	return nil
}

// Handle records the event. It never fails.
func (m *OrderMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *serviceorder.OrderStatusChangedEvent:
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", e.From.String()),
			attribute.String("to", e.To.String()),
		))
	case *stock.StockDebitedEvent:
		m.stockDebited.Add(ctx, int64(e.Quantity))
	case *stock.StockCreditedEvent:
		m.stockCredited.Add(ctx, int64(e.Quantity))
	case *stock.StockBelowMinimumEvent:
		m.lowStock.Add(ctx, 1)
	}
	return nil
}

// HandlerSucceeded implements event.DispatchObserver
func (m *OrderMetrics) HandlerSucceeded(ctx context.Context, eventType, handler string) {
	m.handlerRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("handler", handler),
	))
}

// HandlerFailed implements event.DispatchObserver
func (m *OrderMetrics) HandlerFailed(ctx context.Context, eventType, handler string) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("handler", handler),
	)
	m.handlerRuns.Add(ctx, 1, attrs)
	m.handlerFailures.Add(ctx, 1, attrs)
}

var _ shared.EventHandler = (*OrderMetrics)(nil)
