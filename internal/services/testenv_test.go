package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/notify"
	"github.com/trainhubhq/trainhub-backend/internal/platform/gormdb"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type testEnv struct {
	db *gorm.DB

	userRepo         repos.UserRepo
	courseRepo       repos.CourseRepo
	enrollmentRepo   repos.EnrollmentRepo
	progressRepo     repos.ProgressRepo
	pathRepo         repos.LearningPathRepo
	badgeRepo        repos.BadgeRepo
	notificationRepo repos.NotificationRepo
	syslogRepo       repos.SystemLogRepo

	users         UserService
	courses       CourseService
	enrollments   EnrollmentService
	progress      ProgressService
	gamification  GamificationService
	paths         LearningPathService
	compliance    ComplianceService
	notifications NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
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

	e := &testEnv{
		db:               db,
		userRepo:         repos.NewUserRepo(db, log),
		courseRepo:       repos.NewCourseRepo(db, log),
		enrollmentRepo:   repos.NewEnrollmentRepo(db, log),
		progressRepo:     repos.NewProgressRepo(db, log),
		pathRepo:         repos.NewLearningPathRepo(db, log),
		badgeRepo:        repos.NewBadgeRepo(db, log),
		notificationRepo: repos.NewNotificationRepo(db, log),
		syslogRepo:       repos.NewSystemLogRepo(db, log),
	}

	if err := e.badgeRepo.SeedCatalog(context.Background(), nil, DefaultBadgeCatalog()); err != nil {
		t.Fatalf("seed badges: %v", err)
	}

	e.notifications = NewNotificationService(log, e.notificationRepo, nil)
	e.paths = NewLearningPathService(log, e.pathRepo)
	e.gamification = NewGamificationService(log,
		e.userRepo, e.badgeRepo, e.progressRepo, e.enrollmentRepo, e.notifications, nil)
	e.enrollments = NewEnrollmentService(log, db,
		e.enrollmentRepo, e.courseRepo, e.userRepo, e.syslogRepo,
		e.notifications, e.gamification, e.paths)
	e.progress = NewProgressService(log, db,
		e.progressRepo, e.courseRepo, e.userRepo, e.enrollmentRepo, e.syslogRepo,
		e.enrollments, e.gamification, e.paths, e.notifications)
	e.users = NewUserService(log, db,
		e.userRepo, e.enrollmentRepo, e.progressRepo, e.badgeRepo,
		e.notificationRepo, e.pathRepo, e.syslogRepo,
		e.notifications, e.paths, e.gamification)
	e.courses = NewCourseService(log, db, e.courseRepo)
	e.compliance = NewComplianceService(log,
		e.userRepo, e.courseRepo, e.enrollmentRepo, nil)
	return e
}

// notifyDispatcher swaps a real dispatcher in after env construction.
func (e *testEnv) withDispatcher(d *notify.Dispatcher) {
	e.notifications = NewNotificationService(logger.NewNop(), e.notificationRepo, d)
}

func (e *testEnv) newStudent(t *testing.T, email string) *types.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterUser{
		Name:       "Test Student",
		Email:      email,
		Password:   "s3cret-pass",
		Role:       types.RoleStudent,
		Department: types.DepartmentEngineering,
	})
	if err != nil {
		t.Fatalf("register student: %v", err)
	}
	return user
}

type courseSpec struct {
	modules      int
	capacity     *int
	startDate    *time.Time
	endDate      *time.Time
	mandatoryFor []types.Role
	draft        bool
}

func (e *testEnv) newCourse(t *testing.T, spec courseSpec) *types.Course {
	t.Helper()
	in := NewCourse{
		Title:        "Course " + uuid.NewString()[:8],
		Modality:     types.ModalityOnline,
		Capacity:     spec.capacity,
		StartDate:    spec.startDate,
		EndDate:      spec.endDate,
		MandatoryFor: spec.mandatoryFor,
	}
	for i := 0; i < spec.modules; i++ {
		in.Modules = append(in.Modules, NewCourseModule{Title: fmt.Sprintf("Module %d", i+1)})
	}
	course, err := e.courses.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if !spec.draft {
		course, err = e.courses.Publish(context.Background(), course.ID)
		if err != nil {
			t.Fatalf("publish course: %v", err)
		}
	}
	return course
}

// activeEnrollment walks a student into an active enrollment on a course
// whose window is open.
func (e *testEnv) activeEnrollment(t *testing.T, student *types.User, course *types.Course) *types.Enrollment {
	t.Helper()
	ctx := context.Background()
	row, err := e.enrollments.Request(ctx, student.ID, course.ID, "")
	if err != nil {
		t.Fatalf("request enrollment: %v", err)
	}
	row, err = e.enrollments.Review(ctx, row.ID, types.EnrollmentApproved)
	if err != nil {
		t.Fatalf("approve enrollment: %v", err)
	}
	return row
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(v int) *int              { return &v }
