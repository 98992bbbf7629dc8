package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type NewLearningPath struct {
	Name       string      `json:"name" validate:"required"`
	TargetRole types.Role  `json:"target_role" validate:"required"`
	CourseIDs  []uuid.UUID `json:"course_ids"`
}

// PathSummary is the derived view of a user's standing on one path.
type PathSummary struct {
	PathID    uuid.UUID `json:"path_id"`
	Name      string    `json:"name"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Percent   float64   `json:"percent"`
}

type LearningPathService interface {
	CreatePath(ctx context.Context, in NewLearningPath) (*types.LearningPath, error)
	ListPaths(ctx context.Context) ([]*types.LearningPath, error)

	// BootstrapForUser creates progress rows for every path matching the
	// user's role. Idempotent; called on registration, approval and role
	// changes.
	BootstrapForUser(ctx context.Context, tx *gorm.DB, user *types.User) error
	// ApplyCourseCompletion folds a completed course into every path that
	// lists it for this user.
	ApplyCourseCompletion(ctx context.Context, tx *gorm.DB, user *types.User, courseID uuid.UUID) error

	ListProgressForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserLearningPathProgress, error)
	SummaryForUser(ctx context.Context, userID uuid.UUID) ([]PathSummary, error)
}

type learningPathService struct {
	log  *logger.Logger
	repo repos.LearningPathRepo
}

func NewLearningPathService(baseLog *logger.Logger, repo repos.LearningPathRepo) LearningPathService {
	return &learningPathService{
		log:  baseLog.With("service", "LearningPathService"),
		repo: repo,
	}
}

func (s *learningPathService) CreatePath(ctx context.Context, in NewLearningPath) (*types.LearningPath, error) {
	row := &types.LearningPath{
		ID:         uuid.New(),
		Name:       in.Name,
		TargetRole: in.TargetRole,
		CourseIDs:  in.CourseIDs,
	}
	if err := s.repo.CreatePath(ctx, nil, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *learningPathService) ListPaths(ctx context.Context) ([]*types.LearningPath, error) {
	return s.repo.ListPaths(ctx, nil)
}

func (s *learningPathService) BootstrapForUser(ctx context.Context, tx *gorm.DB, user *types.User) error {
	paths, err := s.repo.ListPathsForRole(ctx, tx, user.Role)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := s.repo.GetOrCreateProgress(ctx, tx, user.ID, path.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *learningPathService) ApplyCourseCompletion(ctx context.Context, tx *gorm.DB, user *types.User, courseID uuid.UUID) error {
	paths, err := s.repo.ListPaths(ctx, tx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if !path.ContainsCourse(courseID) {
			continue
		}
		progress, err := s.repo.GetOrCreateProgress(ctx, tx, user.ID, path.ID)
		if err != nil {
			return err
		}
		if progress.HasCourse(courseID) {
			continue
		}
		progress.CompletedCourseIDs = append(progress.CompletedCourseIDs, courseID)
		if err := s.repo.SaveProgress(ctx, tx, progress); err != nil {
			return err
		}
	}
	return nil
}

func (s *learningPathService) ListProgressForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserLearningPathProgress, error) {
	return s.repo.ListProgressForUser(ctx, nil, userID)
}

func (s *learningPathService) SummaryForUser(ctx context.Context, userID uuid.UUID) ([]PathSummary, error) {
	paths, err := s.repo.ListPaths(ctx, nil)
	if err != nil {
		return nil, err
	}
	progress, err := s.repo.ListProgressForUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	byPath := make(map[uuid.UUID]*types.UserLearningPathProgress, len(progress))
	for _, p := range progress {
		byPath[p.PathID] = p
	}

	summaries := make([]PathSummary, 0, len(progress))
	for _, path := range paths {
		p, ok := byPath[path.ID]
		if !ok {
			continue
		}
		sum := PathSummary{
			PathID:    path.ID,
			Name:      path.Name,
			Total:     len(path.CourseIDs),
			Completed: len(p.CompletedCourseIDs),
		}
		if sum.Total > 0 {
			sum.Percent = float64(sum.Completed) / float64(sum.Total) * 100
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
