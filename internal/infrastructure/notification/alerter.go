package notification

import (
	"context"
	"fmt"

	"github.com/oficina/backend/internal/application/notification"
	"github.com/oficina/backend/internal/application/stock"
)

// StockAlerter mails low-stock alerts to the shop staff
type StockAlerter struct {
	sender     notification.NotificationSender
	recipients []string
}

// NewStockAlerter creates a new StockAlerter
func NewStockAlerter(sender notification.NotificationSender, recipients []string) *StockAlerter {
	return &StockAlerter{sender: sender, recipients: recipients}
}

// Alert sends the alert to every recipient
func (a *StockAlerter) Alert(ctx context.Context, alert stock.LowStockAlert) error {
	subject := fmt.Sprintf("Estoque baixo: %s", alert.Name)
	if alert.AlertType == "out_of_stock" {
		subject = fmt.Sprintf("Estoque esgotado: %s", alert.Name)
	}
	body := fmt.Sprintf("Item %s (%s)\nDisponível: %d\nMínimo: %d\n",
		alert.Name, alert.StockItemID, alert.QuantityAvailable, alert.QuantityMinimum)

	return a.sender.Send(ctx, notification.Message{
		To:      a.recipients,
		Subject: subject,
		Body:    body,
	})
}

var _ stock.LowStockAlerter = (*StockAlerter)(nil)
