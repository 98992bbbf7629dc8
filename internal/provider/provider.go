// Package provider defines the single store contract the rest of the
// application programs against. Two implementations exist: a local
// gorm-backed store and a remote client talking to another instance's HTTP
// surface. Callers never branch on which one is active.
package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/services"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type Provider interface {
	// Users
	RegisterUser(ctx context.Context, in services.RegisterUser) (*types.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	ApproveUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	SuspendUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	RecordForumPost(ctx context.Context, id uuid.UUID) (*types.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Courses
	CreateCourse(ctx context.Context, in services.NewCourse) (*types.Course, error)
	PublishCourse(ctx context.Context, id uuid.UUID) (*types.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, publishedOnly bool) ([]*types.Course, error)

	// Enrollment lifecycle
	RequestEnrollment(ctx context.Context, studentID, courseID uuid.UUID, justification string) (*types.Enrollment, error)
	ReviewEnrollment(ctx context.Context, id uuid.UUID, decision types.EnrollmentStatus) (*types.Enrollment, error)
	CancelEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error)
	TerminateEnrollment(ctx context.Context, id uuid.UUID, to types.EnrollmentStatus) (*types.Enrollment, error)
	GetEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error)
	ListEnrollmentsForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	ListEnrollmentsForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Enrollment, error)

	// Progress
	CompleteModule(ctx context.Context, userID, courseID, moduleID uuid.UUID) (*types.UserProgress, error)
	GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*services.ProgressSummary, error)

	// Derived views
	ListBadgesForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error)
	CreateLearningPath(ctx context.Context, in services.NewLearningPath) (*types.LearningPath, error)
	ListLearningPaths(ctx context.Context) ([]*types.LearningPath, error)
	PathSummariesForUser(ctx context.Context, userID uuid.UUID) ([]services.PathSummary, error)
	ComplianceReport(ctx context.Context, filter services.ComplianceFilter) (*services.ComplianceReport, error)
	Leaderboard(ctx context.Context, limit int) ([]services.LeaderboardEntry, error)

	// Notifications
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error

	// Operations
	ListSystemLogs(ctx context.Context, limit int) ([]*types.SystemLog, error)
}
