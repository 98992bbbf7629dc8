package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/services"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// LocalDeps is the service bundle the embedded store delegates to.
type LocalDeps struct {
	Users         services.UserService
	Courses       services.CourseService
	Enrollments   services.EnrollmentService
	Progress      services.ProgressService
	Gamification  services.GamificationService
	Paths         services.LearningPathService
	Compliance    services.ComplianceService
	Notifications services.NotificationService
	SystemLogs    repos.SystemLogRepo
}

// localProvider is the embedded store: every operation runs against the
// local database through the service layer, multi-table mutations inside
// one transaction.
type localProvider struct {
	deps LocalDeps
}

func NewLocal(deps LocalDeps) Provider {
	return &localProvider{deps: deps}
}

func (p *localProvider) RegisterUser(ctx context.Context, in services.RegisterUser) (*types.User, error) {
	return p.deps.Users.Register(ctx, in)
}

func (p *localProvider) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return p.deps.Users.Get(ctx, id)
}

func (p *localProvider) ListUsers(ctx context.Context) ([]*types.User, error) {
	return p.deps.Users.List(ctx)
}

func (p *localProvider) ApproveUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return p.deps.Users.Approve(ctx, id)
}

func (p *localProvider) SuspendUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return p.deps.Users.Suspend(ctx, id)
}

func (p *localProvider) RecordForumPost(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return p.deps.Users.RecordForumPost(ctx, id)
}

func (p *localProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return p.deps.Users.Delete(ctx, id)
}

func (p *localProvider) CreateCourse(ctx context.Context, in services.NewCourse) (*types.Course, error) {
	return p.deps.Courses.Create(ctx, in)
}

func (p *localProvider) PublishCourse(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	return p.deps.Courses.Publish(ctx, id)
}

func (p *localProvider) GetCourse(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	return p.deps.Courses.Get(ctx, id)
}

func (p *localProvider) ListCourses(ctx context.Context, publishedOnly bool) ([]*types.Course, error) {
	if publishedOnly {
		return p.deps.Courses.ListPublished(ctx)
	}
	return p.deps.Courses.List(ctx)
}

func (p *localProvider) RequestEnrollment(ctx context.Context, studentID, courseID uuid.UUID, justification string) (*types.Enrollment, error) {
	return p.deps.Enrollments.Request(ctx, studentID, courseID, justification)
}

func (p *localProvider) ReviewEnrollment(ctx context.Context, id uuid.UUID, decision types.EnrollmentStatus) (*types.Enrollment, error) {
	return p.deps.Enrollments.Review(ctx, id, decision)
}

func (p *localProvider) CancelEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	return p.deps.Enrollments.Cancel(ctx, id)
}

func (p *localProvider) TerminateEnrollment(ctx context.Context, id uuid.UUID, to types.EnrollmentStatus) (*types.Enrollment, error) {
	return p.deps.Enrollments.Terminate(ctx, id, to)
}

func (p *localProvider) GetEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	return p.deps.Enrollments.Get(ctx, id)
}

func (p *localProvider) ListEnrollmentsForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	return p.deps.Enrollments.ListForStudent(ctx, studentID)
}

func (p *localProvider) ListEnrollmentsForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	return p.deps.Enrollments.ListForCourse(ctx, courseID)
}

func (p *localProvider) CompleteModule(ctx context.Context, userID, courseID, moduleID uuid.UUID) (*types.UserProgress, error) {
	return p.deps.Progress.CompleteModule(ctx, userID, courseID, moduleID)
}

func (p *localProvider) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*services.ProgressSummary, error) {
	return p.deps.Progress.GetProgress(ctx, userID, courseID)
}

func (p *localProvider) ListBadgesForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	return p.deps.Gamification.ListBadgesForUser(ctx, userID)
}

func (p *localProvider) CreateLearningPath(ctx context.Context, in services.NewLearningPath) (*types.LearningPath, error) {
	return p.deps.Paths.CreatePath(ctx, in)
}

func (p *localProvider) ListLearningPaths(ctx context.Context) ([]*types.LearningPath, error) {
	return p.deps.Paths.ListPaths(ctx)
}

func (p *localProvider) PathSummariesForUser(ctx context.Context, userID uuid.UUID) ([]services.PathSummary, error) {
	return p.deps.Paths.SummaryForUser(ctx, userID)
}

func (p *localProvider) ComplianceReport(ctx context.Context, filter services.ComplianceFilter) (*services.ComplianceReport, error) {
	return p.deps.Compliance.Report(ctx, filter)
}

func (p *localProvider) Leaderboard(ctx context.Context, limit int) ([]services.LeaderboardEntry, error) {
	return p.deps.Gamification.Leaderboard(ctx, limit)
}

func (p *localProvider) GetNotificationsForUser(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error) {
	return p.deps.Notifications.ListForUser(ctx, userID)
}

func (p *localProvider) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return p.deps.Notifications.MarkRead(ctx, id)
}

func (p *localProvider) ListSystemLogs(ctx context.Context, limit int) ([]*types.SystemLog, error) {
	return p.deps.SystemLogs.List(ctx, nil, limit)
}
