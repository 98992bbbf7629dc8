package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/services"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// remoteProvider implements the store contract with one HTTP call per
// operation against another instance's server surface. Error normalization
// and timeouts live in the remoteapi client.
type remoteProvider struct {
	client *remoteapi.Client
}

func NewRemote(client *remoteapi.Client) Provider {
	return &remoteProvider{client: client}
}

func (p *remoteProvider) RegisterUser(ctx context.Context, in services.RegisterUser) (*types.User, error) {
	var out types.User
	if err := p.client.Post(ctx, "/api/v1/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := p.client.Get(ctx, "/api/v1/users/"+id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ListUsers(ctx context.Context) ([]*types.User, error) {
	var out []*types.User
	if err := p.client.Get(ctx, "/api/v1/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) ApproveUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := p.client.Post(ctx, "/api/v1/users/"+id.String()+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) SuspendUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := p.client.Post(ctx, "/api/v1/users/"+id.String()+"/suspend", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) RecordForumPost(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := p.client.Post(ctx, "/api/v1/users/"+id.String()+"/forum-posts", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return p.client.Delete(ctx, "/api/v1/users/"+id.String())
}

func (p *remoteProvider) CreateCourse(ctx context.Context, in services.NewCourse) (*types.Course, error) {
	var out types.Course
	if err := p.client.Post(ctx, "/api/v1/courses", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) PublishCourse(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	var out types.Course
	if err := p.client.Post(ctx, "/api/v1/courses/"+id.String()+"/publish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) GetCourse(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	var out types.Course
	if err := p.client.Get(ctx, "/api/v1/courses/"+id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ListCourses(ctx context.Context, publishedOnly bool) ([]*types.Course, error) {
	path := "/api/v1/courses"
	if publishedOnly {
		path += "?published=true"
	}
	var out []*types.Course
	if err := p.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type enrollmentRequestBody struct {
	StudentID     uuid.UUID `json:"student_id"`
	CourseID      uuid.UUID `json:"course_id"`
	Justification string    `json:"justification,omitempty"`
}

func (p *remoteProvider) RequestEnrollment(ctx context.Context, studentID, courseID uuid.UUID, justification string) (*types.Enrollment, error) {
	var out types.Enrollment
	body := enrollmentRequestBody{StudentID: studentID, CourseID: courseID, Justification: justification}
	if err := p.client.Post(ctx, "/api/v1/enrollments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ReviewEnrollment(ctx context.Context, id uuid.UUID, decision types.EnrollmentStatus) (*types.Enrollment, error) {
	var out types.Enrollment
	body := map[string]any{"decision": decision}
	if err := p.client.Post(ctx, "/api/v1/enrollments/"+id.String()+"/review", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) CancelEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	var out types.Enrollment
	if err := p.client.Post(ctx, "/api/v1/enrollments/"+id.String()+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) TerminateEnrollment(ctx context.Context, id uuid.UUID, to types.EnrollmentStatus) (*types.Enrollment, error) {
	var out types.Enrollment
	body := map[string]any{"status": to}
	if err := p.client.Post(ctx, "/api/v1/enrollments/"+id.String()+"/terminate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) GetEnrollment(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	var out types.Enrollment
	if err := p.client.Get(ctx, "/api/v1/enrollments/"+id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ListEnrollmentsForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if err := p.client.Get(ctx, "/api/v1/users/"+studentID.String()+"/enrollments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) ListEnrollmentsForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if err := p.client.Get(ctx, "/api/v1/courses/"+courseID.String()+"/enrollments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type completeModuleBody struct {
	UserID   uuid.UUID `json:"user_id"`
	CourseID uuid.UUID `json:"course_id"`
	ModuleID uuid.UUID `json:"module_id"`
}

func (p *remoteProvider) CompleteModule(ctx context.Context, userID, courseID, moduleID uuid.UUID) (*types.UserProgress, error) {
	var out types.UserProgress
	body := completeModuleBody{UserID: userID, CourseID: courseID, ModuleID: moduleID}
	if err := p.client.Post(ctx, "/api/v1/progress/complete", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*services.ProgressSummary, error) {
	var out services.ProgressSummary
	path := fmt.Sprintf("/api/v1/users/%s/courses/%s/progress", userID, courseID)
	if err := p.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ListBadgesForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	var out []*types.UserBadge
	if err := p.client.Get(ctx, "/api/v1/users/"+userID.String()+"/badges", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) CreateLearningPath(ctx context.Context, in services.NewLearningPath) (*types.LearningPath, error) {
	var out types.LearningPath
	if err := p.client.Post(ctx, "/api/v1/paths", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) ListLearningPaths(ctx context.Context) ([]*types.LearningPath, error) {
	var out []*types.LearningPath
	if err := p.client.Get(ctx, "/api/v1/paths", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) PathSummariesForUser(ctx context.Context, userID uuid.UUID) ([]services.PathSummary, error) {
	var out []services.PathSummary
	if err := p.client.Get(ctx, "/api/v1/users/"+userID.String()+"/paths", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) ComplianceReport(ctx context.Context, filter services.ComplianceFilter) (*services.ComplianceReport, error) {
	path := "/api/v1/reports/compliance"
	sep := "?"
	if filter.Role != nil {
		path += sep + "role=" + string(*filter.Role)
		sep = "&"
	}
	if filter.Department != nil {
		path += sep + "department=" + string(*filter.Department)
	}
	var out services.ComplianceReport
	if err := p.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *remoteProvider) Leaderboard(ctx context.Context, limit int) ([]services.LeaderboardEntry, error) {
	var out []services.LeaderboardEntry
	path := fmt.Sprintf("/api/v1/reports/leaderboard?limit=%d", limit)
	if err := p.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) GetNotificationsForUser(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error) {
	var out []*types.Notification
	if err := p.client.Get(ctx, "/api/v1/users/"+userID.String()+"/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *remoteProvider) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return p.client.Post(ctx, "/api/v1/notifications/"+id.String()+"/read", nil, nil)
}

func (p *remoteProvider) ListSystemLogs(ctx context.Context, limit int) ([]*types.SystemLog, error) {
	var out []*types.SystemLog
	path := fmt.Sprintf("/api/v1/system-logs?limit=%d", limit)
	if err := p.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
