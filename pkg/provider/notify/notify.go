// Package notify defines best-effort outbound user notifications.
package notify

import "context"

// Message is a rendered email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a message. Callers log errors and carry on.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
