package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

func (e *testEnv) newSyncService(t *testing.T, baseURL string) SyncService {
	t.Helper()
	log := logger.NewNop()
	client, err := remoteapi.New(log, remoteapi.Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("remote client: %v", err)
	}
	return NewSyncService(log, client,
		e.userRepo, e.courseRepo, e.enrollmentRepo, e.progressRepo,
		e.pathRepo, e.badgeRepo, e.notificationRepo, e.syslogRepo)
}

func TestSync_PartialFailureConfirmsTheRest(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var students []*types.User
	for _, email := range []string{
		"s1@corp.test", "s2@corp.test", "s3@corp.test", "s4@corp.test", "s5@corp.test",
	} {
		students = append(students, e.newStudent(t, email))
	}
	rejected := students[2]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, rejected.ID.String()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":{"kind":"constraint_violation","code":"email_exists","message":"email already registered"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	report, err := e.newSyncService(t, srv.URL).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Success {
		t.Fatalf("run with a rejected record must not report success")
	}

	var userSynced, userFailed int
	for _, rec := range report.PerRecord {
		if rec.Entity != "users" {
			continue
		}
		if rec.Synced {
			userSynced++
		} else {
			userFailed++
			if rec.ID != rejected.ID {
				t.Fatalf("wrong record failed: %s", rec.ID)
			}
		}
	}
	if userSynced != 4 || userFailed != 1 {
		t.Fatalf("expected 4 synced / 1 failed users, got %d / %d", userSynced, userFailed)
	}

	dirty, err := e.userRepo.ListDirty(ctx, nil)
	if err != nil {
		t.Fatalf("list dirty: %v", err)
	}
	if len(dirty) != 1 || dirty[0].ID != rejected.ID {
		t.Fatalf("only the rejected record should stay dirty, got %d", len(dirty))
	}

	logs, err := e.syslogRepo.List(ctx, nil, 50)
	if err != nil {
		t.Fatalf("list system logs: %v", err)
	}
	found := false
	for _, entry := range logs {
		if entry.Message != "sync record failed" {
			continue
		}
		if id, ok := entry.Details["id"].(string); ok && id == rejected.ID.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("no system log entry naming the rejected record")
	}
}

func TestSync_BackendUnavailableLeavesRecordsDirty(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newStudent(t, "down1@corp.test")
	e.newStudent(t, "down2@corp.test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // every request now fails at the transport

	report, err := e.newSyncService(t, srv.URL).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Success || len(report.SyncedIDs) != 0 {
		t.Fatalf("unreachable backend must sync nothing, got %+v", report)
	}

	dirty, err := e.userRepo.ListDirty(ctx, nil)
	if err != nil {
		t.Fatalf("list dirty: %v", err)
	}
	if len(dirty) != 2 {
		t.Fatalf("expected 2 users still dirty, got %d", len(dirty))
	}
}

func TestSync_RerunAfterPartialFailureRecovers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newStudent(t, "retry@corp.test")

	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail && strings.Contains(r.URL.Path, "/sync/users/") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	svc := e.newSyncService(t, srv.URL)

	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if report.Success {
		t.Fatalf("first run should fail")
	}

	fail = false
	report, err = svc.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !report.Success {
		t.Fatalf("second run should succeed, got %+v", report.PerRecord)
	}

	dirty, err := e.userRepo.ListDirty(ctx, nil)
	if err != nil {
		t.Fatalf("list dirty: %v", err)
	}
	if len(dirty) != 0 {
		t.Fatalf("expected no dirty users after recovery, got %d", len(dirty))
	}
}

func TestSync_ConfirmFailureKeepsReport(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	client, err := remoteapi.New(logger.NewNop(), remoteapi.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("remote client: %v", err)
	}

	userID := uuid.New()
	courseID := uuid.New()
	siblingConfirmed := false
	svc := &syncService{
		log:        logger.NewNop(),
		client:     client,
		syslogRepo: e.syslogRepo,
		syncers: []entitySyncer{
			{
				name: "users",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					return []syncItem{{id: userID, payload: map[string]string{"id": userID.String()}}}, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return errors.New("disk full")
				},
			},
			{
				name: "courses",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					return []syncItem{{id: courseID, payload: map[string]string{"id": courseID.String()}}}, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					siblingConfirmed = true
					return nil
				},
			},
		},
	}

	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Success {
		t.Fatalf("a failed confirm must not report success")
	}
	if len(report.SyncedIDs) != 2 {
		t.Fatalf("both records reached the remote, got %d confirmed", len(report.SyncedIDs))
	}
	found := false
	for _, rec := range report.PerRecord {
		if rec.Entity == "users" && !rec.Synced && strings.Contains(rec.Error, "stay dirty") {
			found = true
		}
	}
	if !found {
		t.Fatalf("confirm failure missing from the per-record log: %+v", report.PerRecord)
	}
	if !siblingConfirmed {
		t.Fatalf("a failed confirm in one entity must not stop the others")
	}
}

func TestSync_NoDirtyRecordsIsCleanSuccess(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	report, err := e.newSyncService(t, srv.URL).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Success || len(report.PerRecord) != 0 {
		t.Fatalf("empty dirty set should be a clean success, got %+v", report)
	}
	if calls != 0 {
		t.Fatalf("no requests expected, got %d", calls)
	}
}
