package server

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/platform/gormdb"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/provider"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/services"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// newTestStack stands up a full local instance behind an HTTP listener and
// returns a remote provider speaking to it, so every call crosses the wire.
// The raw client is for surfaces the provider does not wrap, like sync.
func newTestStack(t *testing.T) (provider.Provider, *remoteapi.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
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

	userRepo := repos.NewUserRepo(db, log)
	courseRepo := repos.NewCourseRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	progressRepo := repos.NewProgressRepo(db, log)
	pathRepo := repos.NewLearningPathRepo(db, log)
	badgeRepo := repos.NewBadgeRepo(db, log)
	notificationRepo := repos.NewNotificationRepo(db, log)
	syslogRepo := repos.NewSystemLogRepo(db, log)

	if err := badgeRepo.SeedCatalog(context.Background(), nil, services.DefaultBadgeCatalog()); err != nil {
		t.Fatalf("seed badges: %v", err)
	}

	notifications := services.NewNotificationService(log, notificationRepo, nil)
	paths := services.NewLearningPathService(log, pathRepo)
	gamification := services.NewGamificationService(log,
		userRepo, badgeRepo, progressRepo, enrollmentRepo, notifications, nil)
	enrollments := services.NewEnrollmentService(log, db,
		enrollmentRepo, courseRepo, userRepo, syslogRepo,
		notifications, gamification, paths)
	progress := services.NewProgressService(log, db,
		progressRepo, courseRepo, userRepo, enrollmentRepo, syslogRepo,
		enrollments, gamification, paths, notifications)
	users := services.NewUserService(log, db,
		userRepo, enrollmentRepo, progressRepo, badgeRepo,
		notificationRepo, pathRepo, syslogRepo,
		notifications, paths, gamification)
	courses := services.NewCourseService(log, db, courseRepo)
	compliance := services.NewComplianceService(log,
		userRepo, courseRepo, enrollmentRepo, nil)

	local := provider.NewLocal(provider.LocalDeps{
		Users:         users,
		Courses:       courses,
		Enrollments:   enrollments,
		Progress:      progress,
		Gamification:  gamification,
		Paths:         paths,
		Compliance:    compliance,
		Notifications: notifications,
		SystemLogs:    syslogRepo,
	})

	srv := New(log, local, SyncRepos{
		Users:         userRepo,
		Courses:       courseRepo,
		Enrollments:   enrollmentRepo,
		Progress:      progressRepo,
		Paths:         pathRepo,
		Badges:        badgeRepo,
		Notifications: notificationRepo,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	client, err := remoteapi.New(log, remoteapi.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("remote client: %v", err)
	}
	remote, err := provider.Resolve(log, provider.ResolveConfig{
		Mode:   "remote",
		Remote: remoteapi.Config{BaseURL: ts.URL},
	})
	if err != nil {
		t.Fatalf("resolve remote provider: %v", err)
	}
	return remote, client
}

func TestRemoteRoundTrip_EnrollmentLifecycle(t *testing.T) {
	store, _ := newTestStack(t)
	ctx := context.Background()

	user, err := store.RegisterUser(ctx, services.RegisterUser{
		Name:       "Wire Student",
		Email:      "wire@corp.test",
		Password:   "s3cret-pass",
		Role:       types.RoleStudent,
		Department: types.DepartmentEngineering,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	started := time.Now().UTC().Add(-time.Hour)
	course, err := store.CreateCourse(ctx, services.NewCourse{
		Title:     "Wire Protocol Basics",
		Modality:  types.ModalityOnline,
		StartDate: &started,
		Modules:   []services.NewCourseModule{{Title: "Only Module"}},
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if course, err = store.PublishCourse(ctx, course.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	enrollment, err := store.RequestEnrollment(ctx, user.ID, course.ID, "over the wire")
	if err != nil {
		t.Fatalf("request enrollment: %v", err)
	}
	enrollment, err = store.ReviewEnrollment(ctx, enrollment.ID, types.EnrollmentApproved)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if enrollment.Status != types.EnrollmentActive {
		t.Fatalf("expected active enrollment on a started course, got %s", enrollment.Status)
	}

	if _, err := store.CompleteModule(ctx, user.ID, course.ID, course.Modules[0].ID); err != nil {
		t.Fatalf("complete module: %v", err)
	}
	summary, err := store.GetProgress(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if summary.Percent != 100 {
		t.Fatalf("expected 100%% progress, got %v", summary.Percent)
	}

	badges, err := store.ListBadgesForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list badges: %v", err)
	}
	if len(badges) == 0 {
		t.Fatalf("course completion should have earned badges")
	}

	entries, err := store.Leaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != user.ID {
		t.Fatalf("leaderboard missing the student: %+v", entries)
	}
}

func TestRemoteRoundTrip_ErrorsKeepTheirTaxonomy(t *testing.T) {
	store, _ := newTestStack(t)
	ctx := context.Background()

	if _, err := store.GetUser(ctx, uuid.New()); !storeerr.IsNotFound(err) {
		t.Fatalf("expected not found over the wire, got %v", err)
	}

	user, err := store.RegisterUser(ctx, services.RegisterUser{
		Name:       "Conflict Student",
		Email:      "conflict@corp.test",
		Password:   "s3cret-pass",
		Role:       types.RoleStudent,
		Department: types.DepartmentSales,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	course, err := store.CreateCourse(ctx, services.NewCourse{
		Title:    "Conflict Course",
		Modality: types.ModalitySelfPaced,
		Modules:  []services.NewCourseModule{{Title: "M1"}},
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if _, err := store.PublishCourse(ctx, course.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if _, err := store.RequestEnrollment(ctx, user.ID, course.ID, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err = store.RequestEnrollment(ctx, user.ID, course.ID, "")
	if !storeerr.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation over the wire, got %v", err)
	}
	if storeerr.CodeOf(err) != storeerr.CodeDuplicateRequest {
		t.Fatalf("duplicate_request code lost in transit: %q", storeerr.CodeOf(err))
	}
}

func TestSyncUpsert_AppliesPushedRecord(t *testing.T) {
	store, client := newTestStack(t)
	ctx := context.Background()

	// A record minted on another replica lands through the sync surface
	// and becomes readable like any local row.
	row := &types.User{
		ID:         uuid.New(),
		Name:       "Replica Author",
		Email:      "replica@corp.test",
		Role:       types.RoleStudent,
		Department: types.DepartmentOperations,
		Status:     types.UserStatusApproved,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := client.Put(ctx, "/api/v1/sync/users/"+row.ID.String(), row, nil); err != nil {
		t.Fatalf("sync upsert: %v", err)
	}

	fetched, err := store.GetUser(ctx, row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Email != "replica@corp.test" || fetched.Name != "Replica Author" {
		t.Fatalf("round trip mangled the record: %+v", fetched)
	}

	if err := client.Put(ctx, "/api/v1/sync/widgets/"+row.ID.String(), row, nil); err == nil {
		t.Fatalf("unknown sync entity must be rejected")
	}
}
