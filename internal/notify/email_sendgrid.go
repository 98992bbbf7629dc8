package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
)

type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type emailSender struct {
	log    *logger.Logger
	cfg    EmailConfig
	client *sendgrid.Client
}

func NewEmailSender(baseLog *logger.Logger, cfg EmailConfig) (Sender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("sendgrid from email required")
	}
	return &emailSender{
		log:    baseLog.With("sender", "EmailSender"),
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
	}, nil
}

func (s *emailSender) Name() string { return ChannelEmail }

func (s *emailSender) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return storeerr.Newf(storeerr.KindDeliveryFailure, "",
			"user %s has no email address", msg.UserID)
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail("", msg.Email)
	body := msg.Body
	if msg.Link != "" {
		body = fmt.Sprintf("%s\n\n%s", body, msg.Link)
	}
	m := mail.NewSingleEmail(from, msg.Subject, to, body, "")

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return storeerr.New(storeerr.KindDeliveryFailure, "", fmt.Errorf("sendgrid: %w", err))
	}
	if resp.StatusCode >= 300 {
		return storeerr.Newf(storeerr.KindDeliveryFailure, "",
			"sendgrid http %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
