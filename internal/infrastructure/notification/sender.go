package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/oficina/backend/internal/application/notification"
	"github.com/oficina/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Supported notification drivers
const (
	DriverLog  = "log"
	DriverSMTP = "smtp"
)

// NewSender creates the sender selected by configuration
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) (notification.NotificationSender, error) {
	switch cfg.Driver {
	case DriverLog, "":
		return NewLogSender(logger), nil
	case DriverSMTP:
		return NewSMTPSender(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported notification driver %q", cfg.Driver)
	}
}

// LogSender writes messages to the log instead of delivering them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("mail")}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, msg notification.Message) error {
	s.logger.Info("notification",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// SMTPSender delivers messages through an SMTP relay
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTPSender. Authentication is used when a user is configured.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.SMTPUser != "" {
		s.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return s
}

// Send delivers the message
func (s *SMTPSender) Send(ctx context.Context, msg notification.Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from, msg.To, s.compose(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.addr, err)
	}
	return nil
}

func (s *SMTPSender) compose(msg notification.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

var (
	_ notification.NotificationSender = (*LogSender)(nil)
	_ notification.NotificationSender = (*SMTPSender)(nil)
)
