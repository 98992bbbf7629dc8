package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type NewCourseModule struct {
	Title string `json:"title" validate:"required"`
}

type NewCourse struct {
	Title        string               `json:"title" validate:"required"`
	Modality     types.CourseModality `json:"modality" validate:"required,oneof=online in_person blended self_paced"`
	Capacity     *int                 `json:"capacity,omitempty" validate:"omitempty,min=1"`
	StartDate    *time.Time           `json:"start_date,omitempty"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
	MandatoryFor []types.Role         `json:"mandatory_for,omitempty"`
	Modules      []NewCourseModule    `json:"modules" validate:"dive"`
}

type CourseService interface {
	// Create stores the course in draft with its owned, ordered modules.
	Create(ctx context.Context, in NewCourse) (*types.Course, error)
	// Publish makes a draft course visible for enrollment.
	Publish(ctx context.Context, id uuid.UUID) (*types.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Course, error)
	List(ctx context.Context) ([]*types.Course, error)
	ListPublished(ctx context.Context) ([]*types.Course, error)
}

type courseService struct {
	log        *logger.Logger
	db         *gorm.DB
	courseRepo repos.CourseRepo
}

func NewCourseService(baseLog *logger.Logger, db *gorm.DB, courseRepo repos.CourseRepo) CourseService {
	return &courseService{
		log:        baseLog.With("service", "CourseService"),
		db:         db,
		courseRepo: courseRepo,
	}
}

func (s *courseService) Create(ctx context.Context, in NewCourse) (*types.Course, error) {
	if err := validate.Struct(in); err != nil {
		return nil, storeerr.New(storeerr.KindConstraintViolation, "", err)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, storeerr.Newf(storeerr.KindConstraintViolation, "",
			"course end date precedes start date")
	}

	row := &types.Course{
		ID:           uuid.New(),
		Title:        in.Title,
		Modality:     in.Modality,
		Status:       types.CourseStatusDraft,
		Capacity:     in.Capacity,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		MandatoryFor: in.MandatoryFor,
	}
	for i, m := range in.Modules {
		row.Modules = append(row.Modules, types.CourseModule{
			ID:       uuid.New(),
			CourseID: row.ID,
			Title:    m.Title,
			Position: i + 1,
		})
	}
	if err := s.courseRepo.Create(ctx, nil, row); err != nil {
		return nil, err
	}
	s.log.Info("Course created", "course_id", row.ID, "modules", len(row.Modules))
	return row, nil
}

func (s *courseService) Publish(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	var row *types.Course
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.courseRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row.Status != types.CourseStatusDraft {
			return storeerr.Newf(storeerr.KindInvalidTransition, "",
				"course %s is already %s", id, row.Status)
		}
		row.Status = types.CourseStatusPublished
		if err := s.courseRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("Course published", "course_id", row.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *courseService) Get(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	return s.courseRepo.GetByID(ctx, nil, id)
}

func (s *courseService) List(ctx context.Context) ([]*types.Course, error) {
	return s.courseRepo.List(ctx, nil)
}

func (s *courseService) ListPublished(ctx context.Context) ([]*types.Course, error) {
	return s.courseRepo.ListPublished(ctx, nil)
}
