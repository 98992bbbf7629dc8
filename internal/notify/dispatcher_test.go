package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/platform/gormdb"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
)

type stubSender struct {
	name string
	err  error
	sent chan Message
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(ctx context.Context, msg Message) error {
	if s.sent != nil {
		s.sent <- msg
	}
	return s.err
}

func newSyslogRepo(t *testing.T) repos.SystemLogRepo {
	t.Helper()
	log := logger.NewNop()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gormdb.Open(log, gormdb.Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gormdb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repos.NewSystemLogRepo(db, log)
}

func hasLogEntry(t *testing.T, syslog repos.SystemLogRepo, message string) bool {
	t.Helper()
	rows, err := syslog.List(context.Background(), nil, 50)
	if err != nil {
		t.Fatalf("list system logs: %v", err)
	}
	for _, row := range rows {
		if row.Message == message {
			return true
		}
	}
	return false
}

func TestDispatcher_FailedChannelDoesNotBlockOthers(t *testing.T) {
	syslog := newSyslogRepo(t)
	email := &stubSender{name: ChannelEmail, err: errors.New("smtp refused")}
	chat := &stubSender{name: ChannelChat, sent: make(chan Message, 1)}

	d := NewDispatcher(logger.NewNop(), syslog, []Sender{email, chat}, 8)
	d.Start(context.Background(), 1)

	d.Enqueue(Message{
		NotificationID: uuid.New(),
		UserID:         uuid.New(),
		Email:          "dual@corp.test",
		Channels:       []string{ChannelEmail, ChannelChat},
		Subject:        "hello",
	})

	select {
	case <-chat.sent:
	case <-time.After(2 * time.Second):
		t.Fatalf("chat delivery never happened after email failure")
	}
	d.Stop()

	if !hasLogEntry(t, syslog, "notification delivery failed") {
		t.Fatalf("email failure not recorded in system log")
	}
}

func TestDispatcher_SkipsChannelsTheUserDisabled(t *testing.T) {
	syslog := newSyslogRepo(t)
	email := &stubSender{name: ChannelEmail, sent: make(chan Message, 1)}
	chat := &stubSender{name: ChannelChat, sent: make(chan Message, 1)}

	d := NewDispatcher(logger.NewNop(), syslog, []Sender{email, chat}, 8)
	d.Start(context.Background(), 1)
	d.Enqueue(Message{
		NotificationID: uuid.New(),
		UserID:         uuid.New(),
		Channels:       []string{ChannelChat},
	})
	d.Stop()

	if len(email.sent) != 0 {
		t.Fatalf("email sent despite channel not being selected")
	}
	if len(chat.sent) != 1 {
		t.Fatalf("chat delivery missing")
	}
}

func TestDispatcher_OverflowDropsAndRecords(t *testing.T) {
	syslog := newSyslogRepo(t)
	d := NewDispatcher(logger.NewNop(), syslog, nil, 1)
	// Workers never started, so the queue only holds one message.

	first := d.Enqueue(Message{NotificationID: uuid.New(), UserID: uuid.New()})
	second := d.Enqueue(Message{NotificationID: uuid.New(), UserID: uuid.New()})
	if !first || second {
		t.Fatalf("expected first accepted and second dropped, got %v / %v", first, second)
	}
	if !hasLogEntry(t, syslog, "notification dispatch dropped: queue full") {
		t.Fatalf("drop not recorded in system log")
	}
}
