// Package channels delivers release notifications to configured sinks:
// webhooks for the web surface and queue/topic transports for chat bots.
package channels

import (
	"context"
	"time"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// Channel is one configured delivery sink. A channel serves exactly one
// notification kind; the router matches notifications to channels by it.
type Channel interface {
	ID() string
	Kind() domain.ChannelKind
	Deliver(ctx context.Context, msg Message) error
}

// Message is the wire payload a channel sends downstream.
type Message struct {
	Notification domain.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

// NewMessage wraps a notification for delivery.
func NewMessage(n domain.Notification) Message {
	return Message{
		Notification: n,
		SentAt:       time.Now().UTC(),
	}
}
