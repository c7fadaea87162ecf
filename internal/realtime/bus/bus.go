package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventNotification = "notification"
)

// Message is one event addressed to a member channel.
type Message struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Data    map[string]any `json:"data,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// MemberChannel is the channel name a member's clients subscribe to.
func MemberChannel(memberID uuid.UUID) string {
	return "member:" + memberID.String()
}

type Bus interface {
	Publish(ctx context.Context, msg Message) error
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
	Close() error
}
