package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// DefaultAlertTTL is the window in which a stock item is alerted at most once
const DefaultAlertTTL = 24 * time.Hour

// LowStockAlert describes a stock item at or below its minimum
type LowStockAlert struct {
	StockItemID       string `json:"stock_item_id"`
	Name              string `json:"name"`
	QuantityAvailable int    `json:"quantity_available"`
	QuantityMinimum   int    `json:"quantity_minimum"`
	AlertType         string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// LowStockAlerter delivers low-stock alerts (email, log, ...)
type LowStockAlerter interface {
	Alert(ctx context.Context, alert LowStockAlert) error
}

// AlertThrottle remembers which alerts were already sent.
// Allow returns true the first time a key is seen within ttl.
type AlertThrottle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// LowStockHandler handles StockBelowMinimum events, alerting at most once per item per TTL
type LowStockHandler struct {
	logger   *zap.Logger
	alerter  LowStockAlerter
	throttle AlertThrottle
	ttl      time.Duration
	now      func() time.Time
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger, alerter LowStockAlerter) *LowStockHandler {
	return &LowStockHandler{
		logger:  logger,
		alerter: alerter,
		ttl:     DefaultAlertTTL,
		now:     time.Now,
	}
}

// WithThrottle sets the throttle used to deduplicate alerts
func (h *LowStockHandler) WithThrottle(throttle AlertThrottle, ttl time.Duration) *LowStockHandler {
	h.throttle = throttle
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{stock.EventTypeStockBelowMinimum}
}

// Handle processes a StockBelowMinimumEvent.
// Delivery problems are logged; they never fail the dispatch.
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*stock.StockBelowMinimumEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", stock.EventTypeStockBelowMinimum),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			stock.EventTypeStockBelowMinimum, event.EventType())
	}

	h.deliver(ctx, newLowStockAlert(low.StockItemID.String(), low.Name, low.QuantityAvailable, low.QuantityMinimum))
	return nil
}

// AlertBelowMinimum alerts every active item already at or below its minimum, under the same
// throttle as the event path. The worker runs it at startup so stock that ran low while it was
// down is still reported. It returns how many alerts were delivered.
func (h *LowStockHandler) AlertBelowMinimum(ctx context.Context, repo stock.StockItemRepository) (int, error) {
	items, err := repo.FindBelowMinimum(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stock below minimum: %w", err)
	}
	sent := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if h.deliver(ctx, newLowStockAlert(item.ID.String(), item.Name, item.QuantityAvailable, item.QuantityMinimum)) {
			sent++
		}
	}
	return sent, nil
}

func newLowStockAlert(id, name string, available, minimum int) LowStockAlert {
	alertType := "low_stock"
	if available == 0 {
		alertType = "out_of_stock"
	}
	return LowStockAlert{
		StockItemID:       id,
		Name:              name,
		QuantityAvailable: available,
		QuantityMinimum:   minimum,
		AlertType:         alertType,
	}
}

// deliver sends alert unless the throttle already saw it today.
// Delivery problems are logged; it reports whether the alert went out.
func (h *LowStockHandler) deliver(ctx context.Context, alert LowStockAlert) bool {
	if h.throttle != nil {
		allowed, err := h.throttle.Allow(ctx, h.throttleKey(alert.StockItemID), h.ttl)
		if err != nil {
			h.logger.Warn("alert throttle unavailable, sending anyway",
				zap.String("stock_item_id", alert.StockItemID),
				zap.Error(err),
			)
		} else if !allowed {
			h.logger.Debug("low stock alert already sent",
				zap.String("stock_item_id", alert.StockItemID),
			)
			return false
		}
	}

	if h.alerter == nil {
		return false
	}
	if err := h.alerter.Alert(ctx, alert); err != nil {
		h.logger.Error("failed to send low stock alert",
			zap.String("stock_item_id", alert.StockItemID),
			zap.Error(err),
		)
		return false
	}

	h.logger.Info("low stock alert sent",
		zap.String("stock_item_id", alert.StockItemID),
		zap.String("alert_type", alert.AlertType),
		zap.Int("quantity_available", alert.QuantityAvailable),
	)
	return true
}

// throttleKey scopes the key to the calendar day so a new day alerts again
func (h *LowStockHandler) throttleKey(stockItemID string) string {
	return fmt.Sprintf("low-stock:%s:%s", stockItemID, h.now().UTC().Format("2006-01-02"))
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)
