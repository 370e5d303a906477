package notification

import "context"

// Message is a plain-text email
type Message struct {
	To      []string
	Subject string
	Body    string
}

// NotificationSender delivers messages to customers and staff
type NotificationSender interface {
	Send(ctx context.Context, msg Message) error
}
