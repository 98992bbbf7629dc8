package services

import (
	"context"
	"errors"
	"testing"

	"github.com/trainhubhq/trainhub-backend/internal/notify"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type failingSender struct{ name string }

func (s *failingSender) Name() string { return s.name }

func (s *failingSender) Send(ctx context.Context, msg notify.Message) error {
	return errors.New("provider rejected the message")
}

func TestNotification_RowSurvivesDeliveryFailure(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "undeliverable@corp.test")

	d := notify.NewDispatcher(logger.NewNop(), e.syslogRepo,
		[]notify.Sender{&failingSender{name: notify.ChannelEmail}}, 8)
	d.Start(ctx, 1)
	e.withDispatcher(d)

	ob := &Outbox{}
	row, err := e.notifications.CreateForUser(ctx, nil, ob, student,
		types.NotificationEnrollment, "Enrollment approved", "You are in.", "/enrollments")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	e.notifications.Flush(ob)
	d.Stop()

	// The durable row outlives the channel failure.
	rows, err := e.notifications.ListForUser(ctx, student.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	found := false
	for _, n := range rows {
		if n.ID == row.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("notification row missing after delivery failure")
	}

	logs, err := e.syslogRepo.List(ctx, nil, 50)
	if err != nil {
		t.Fatalf("list system logs: %v", err)
	}
	recorded := false
	for _, entry := range logs {
		if entry.Message == "notification delivery failed" {
			recorded = true
		}
	}
	if !recorded {
		t.Fatalf("delivery failure not recorded in system log")
	}
}

func TestNotification_MarkRead(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "reader@corp.test")

	rows, err := e.notifications.ListForUser(ctx, student.ID)
	if err != nil || len(rows) == 0 {
		t.Fatalf("expected welcome notification, got %d (%v)", len(rows), err)
	}
	if rows[0].Read {
		t.Fatalf("fresh notification must be unread")
	}

	if err := e.notifications.MarkRead(ctx, rows[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	rows, err = e.notifications.ListForUser(ctx, student.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if !rows[0].Read {
		t.Fatalf("notification still unread after MarkRead")
	}
}
