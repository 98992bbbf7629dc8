package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/notify"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// Outbox collects channel deliveries produced inside a transaction. The
// caller enqueues them only after the transaction commits, so a delivery
// can never refer to rolled-back state and a delivery failure can never
// roll back domain state.
type Outbox struct {
	msgs []notify.Message
}

func (o *Outbox) Add(m notify.Message) {
	o.msgs = append(o.msgs, m)
}

func (o *Outbox) Messages() []notify.Message {
	return o.msgs
}

type NotificationService interface {
	// CreateForUser persists the durable in-app row inside tx and stages
	// the channel fan-out on the outbox.
	CreateForUser(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User,
		typ types.NotificationType, title, body, link string) (*types.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	// Flush hands committed outbox messages to the dispatcher.
	Flush(ob *Outbox)
}

type notificationService struct {
	log        *logger.Logger
	repo       repos.NotificationRepo
	dispatcher *notify.Dispatcher
}

func NewNotificationService(baseLog *logger.Logger, repo repos.NotificationRepo, dispatcher *notify.Dispatcher) NotificationService {
	return &notificationService{
		log:        baseLog.With("service", "NotificationService"),
		repo:       repo,
		dispatcher: dispatcher,
	}
}

func (s *notificationService) CreateForUser(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User,
	typ types.NotificationType, title, body, link string) (*types.Notification, error) {

	row := &types.Notification{
		ID:     uuid.New(),
		UserID: user.ID,
		Type:   typ,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.repo.Create(ctx, tx, row); err != nil {
		return nil, err
	}

	if ob != nil {
		ob.Add(notify.Message{
			NotificationID: row.ID,
			UserID:         user.ID,
			Email:          user.Email,
			Channels:       channelsFor(user),
			Subject:        title,
			Body:           body,
			Link:           link,
		})
	}
	return row, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error) {
	return s.repo.ListForUser(ctx, nil, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, nil, id)
}

func (s *notificationService) Flush(ob *Outbox) {
	if ob == nil || s.dispatcher == nil {
		return
	}
	s.dispatcher.EnqueueAll(ob.Messages())
}

func channelsFor(user *types.User) []string {
	var channels []string
	if user.NotifyEmail {
		channels = append(channels, notify.ChannelEmail)
	}
	if user.NotifyChat {
		channels = append(channels, notify.ChannelChat)
	}
	return channels
}
