// Package notify fans a persisted in-app notification out to delivery
// channels. The in-app row is the durable source of truth; everything in
// this package is best-effort and must never fail a domain transaction.
package notify

import (
	"context"

	"github.com/google/uuid"
)

const (
	ChannelEmail = "email"
	ChannelChat  = "chat"
)

// Message is one queued delivery task. Channels are resolved from the
// user's preferences before the message is enqueued.
type Message struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
	Email          string
	Channels       []string
	Subject        string
	Body           string
	Link           string
}

func (m Message) wantsChannel(name string) bool {
	for _, ch := range m.Channels {
		if ch == name {
			return true
		}
	}
	return false
}

// Sender delivers a message over one channel. Implementations are external
// collaborators (email, chat webhook); each call is independently failable.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
