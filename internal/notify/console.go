package notify

import (
	"context"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
)

// consoleSender logs deliveries instead of sending them; the development
// stand-in for the email channel.
type consoleSender struct {
	log *logger.Logger
}

func NewConsoleSender(baseLog *logger.Logger) Sender {
	return &consoleSender{log: baseLog.With("sender", "ConsoleSender")}
}

func (s *consoleSender) Name() string { return ChannelEmail }

func (s *consoleSender) Send(_ context.Context, msg Message) error {
	s.log.Info("Would deliver email",
		"to", msg.Email,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
