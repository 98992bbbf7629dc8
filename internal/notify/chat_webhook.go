package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
)

type ChatConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// chatSender posts to a chat webhook (Slack/Teams style incoming hook).
type chatSender struct {
	log *logger.Logger
	rc  *resty.Client
}

func NewChatSender(baseLog *logger.Logger, cfg ChatConfig) (Sender, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("chat webhook url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rc := resty.New().
		SetBaseURL(cfg.WebhookURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &chatSender{
		log: baseLog.With("sender", "ChatSender"),
		rc:  rc,
	}, nil
}

func (s *chatSender) Name() string { return ChannelChat }

func (s *chatSender) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"user_id": msg.UserID.String(),
		"text":    fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body),
	}
	if msg.Link != "" {
		payload["link"] = msg.Link
	}

	resp, err := s.rc.R().SetContext(ctx).SetBody(payload).Post("")
	if err != nil {
		return storeerr.New(storeerr.KindDeliveryFailure, "", fmt.Errorf("chat webhook: %w", err))
	}
	if resp.IsError() {
		return storeerr.Newf(storeerr.KindDeliveryFailure, "",
			"chat webhook http %d", resp.StatusCode())
	}
	return nil
}
