package notification

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/oficina/backend/internal/application/notification"
	"github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSender(t *testing.T) {
	logger := zap.NewNop()

	s, err := NewSender(config.NotificationConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.NotificationConfig{Driver: DriverSMTP, SMTPHost: "mail.local", SMTPPort: 25}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.NotificationConfig{Driver: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), notification.Message{To: []string{"a@example.com"}, Subject: "hi"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hi", logs.All()[0].ContextMap()["subject"])
}

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newCapturingSender(cfg config.NotificationConfig, fail error) (*SMTPSender, *capturedMail) {
	captured := &capturedMail{}
	s := NewSMTPSender(cfg)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr, captured.auth, captured.from, captured.to, captured.msg = addr, a, from, to, string(msg)
		return fail
	}
	return s, captured
}

func TestSMTPSender(t *testing.T) {
	ctx := context.Background()
	cfg := config.NotificationConfig{
		Driver:   DriverSMTP,
		SMTPHost: "mail.local",
		SMTPPort: 587,
		From:     "oficina@example.com",
	}

	t.Run("composes a plain text message", func(t *testing.T) {
		s, captured := newCapturingSender(cfg, nil)
		err := s.Send(ctx, notification.Message{
			To:      []string{"ana@example.com"},
			Subject: "Orçamento",
			Body:    "linha 1\nlinha 2",
		})
		require.NoError(t, err)

		assert.Equal(t, "mail.local:587", captured.addr)
		assert.Nil(t, captured.auth)
		assert.Equal(t, "oficina@example.com", captured.from)
		assert.Equal(t, []string{"ana@example.com"}, captured.to)
		assert.Contains(t, captured.msg, "Subject: Orçamento\r\n")
		assert.Contains(t, captured.msg, "charset=UTF-8")
		assert.Contains(t, captured.msg, "\r\n\r\nlinha 1\r\nlinha 2")
	})

	t.Run("authenticates when a user is set", func(t *testing.T) {
		withUser := cfg
		withUser.SMTPUser = "oficina"
		withUser.SMTPPassword = "secret"
		s, captured := newCapturingSender(withUser, nil)
		require.NoError(t, s.Send(ctx, notification.Message{To: []string{"ana@example.com"}}))
		assert.NotNil(t, captured.auth)
	})

	t.Run("no recipients", func(t *testing.T) {
		s, captured := newCapturingSender(cfg, errors.New("should not be called"))
		require.NoError(t, s.Send(ctx, notification.Message{}))
		assert.Empty(t, captured.addr)
	})

	t.Run("relay error", func(t *testing.T) {
		s, _ := newCapturingSender(cfg, errors.New("554 rejected"))
		err := s.Send(ctx, notification.Message{To: []string{"ana@example.com"}})
		assert.ErrorContains(t, err, "554 rejected")
	})
}

type recordingSender struct {
	sent []notification.Message
}

func (r *recordingSender) Send(_ context.Context, msg notification.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestStockAlerter(t *testing.T) {
	sender := &recordingSender{}
	alerter := NewStockAlerter(sender, []string{"estoque@example.com"})

	require.NoError(t, alerter.Alert(context.Background(), stock.LowStockAlert{
		StockItemID:       "42",
		Name:              "Filtro de óleo",
		QuantityAvailable: 0,
		QuantityMinimum:   3,
		AlertType:         "out_of_stock",
	}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"estoque@example.com"}, sender.sent[0].To)
	assert.Equal(t, "Estoque esgotado: Filtro de óleo", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "Mínimo: 3")
}
