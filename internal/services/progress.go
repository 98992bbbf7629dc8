package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// ProgressSummary is the derived per-course view of a user's progress.
type ProgressSummary struct {
	CourseID         uuid.UUID `json:"course_id"`
	CourseTitle      string    `json:"course_title"`
	ModulesTotal     int       `json:"modules_total"`
	ModulesCompleted int       `json:"modules_completed"`
	Percent          float64   `json:"percent"`
}

type ProgressService interface {
	// CompleteModule records one module completion and runs the whole
	// derived cascade in one transaction: progress append, module points,
	// badge evaluation, and, when the course total is reached, forced
	// enrollment completion, course points and learning-path rollup.
	CompleteModule(ctx context.Context, userID, courseID, moduleID uuid.UUID) (*types.UserProgress, error)
	GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*ProgressSummary, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserProgress, error)
}

type progressService struct {
	log            *logger.Logger
	db             *gorm.DB
	progressRepo   repos.ProgressRepo
	courseRepo     repos.CourseRepo
	userRepo       repos.UserRepo
	enrollmentRepo repos.EnrollmentRepo
	syslogRepo     repos.SystemLogRepo
	enrollments    EnrollmentService
	gamification   GamificationService
	paths          LearningPathService
	notifications  NotificationService
}

func NewProgressService(
	baseLog *logger.Logger,
	db *gorm.DB,
	progressRepo repos.ProgressRepo,
	courseRepo repos.CourseRepo,
	userRepo repos.UserRepo,
	enrollmentRepo repos.EnrollmentRepo,
	syslogRepo repos.SystemLogRepo,
	enrollments EnrollmentService,
	gamification GamificationService,
	paths LearningPathService,
	notifications NotificationService,
) ProgressService {
	return &progressService{
		log:            baseLog.With("service", "ProgressService"),
		db:             db,
		progressRepo:   progressRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		syslogRepo:     syslogRepo,
		enrollments:    enrollments,
		gamification:   gamification,
		paths:          paths,
		notifications:  notifications,
	}
}

func (s *progressService) CompleteModule(ctx context.Context, userID, courseID, moduleID uuid.UUID) (*types.UserProgress, error) {
	var progress *types.UserProgress
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		module := moduleOf(course, moduleID)
		if module == nil {
			return storeerr.Newf(storeerr.KindNotFound, "",
				"module %s not part of course %s", moduleID, courseID)
		}

		enrollment, err := s.enrollmentRepo.GetActiveForUserAndCourse(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrollment.Status != types.EnrollmentActive && enrollment.Status != types.EnrollmentApproved {
			return storeerr.Newf(storeerr.KindInvalidTransition, "",
				"enrollment %s is %s, not active", enrollment.ID, enrollment.Status)
		}

		progress, err = s.progressRepo.GetByUserAndCourse(ctx, tx, userID, courseID)
		if storeerr.IsNotFound(err) {
			progress = &types.UserProgress{
				ID:       uuid.New(),
				UserID:   userID,
				CourseID: courseID,
			}
			if err := s.progressRepo.Create(ctx, tx, progress); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Re-completing a module is a no-op: no points, no badge re-check.
		if progress.HasModule(moduleID) {
			return nil
		}
		now := time.Now().UTC()
		progress.CompletedModuleIDs = append(progress.CompletedModuleIDs, moduleID)
		if err := s.progressRepo.Save(ctx, tx, progress); err != nil {
			return err
		}
		s.log.Info("Module completed",
			"user_id", userID, "course_id", courseID, "module_id", moduleID,
			"completed", len(progress.CompletedModuleIDs), "total", len(course.Modules))

		if err := s.gamification.AwardModulePoints(ctx, tx, ob, user, now); err != nil {
			return err
		}

		if len(course.Modules) == 0 || len(progress.CompletedModuleIDs) < len(course.Modules) {
			return nil
		}

		// Last module of the course: force the enrollment to completed and
		// run the course-level cascade in the same transaction.
		if err := s.enrollments.CompleteFromProgress(ctx, tx, enrollment); err != nil {
			return err
		}
		granted, err := s.gamification.AwardCoursePoints(ctx, tx, ob, user, course, now)
		if err != nil {
			return err
		}
		if err := s.paths.ApplyCourseCompletion(ctx, tx, user, courseID); err != nil {
			s.log.Warn("Learning path rollup failed", "user_id", userID, "course_id", courseID, "error", err)
			_ = s.syslogRepo.Record(ctx, tx, types.LogLevelWarn,
				"learning path rollup failed",
				map[string]any{
					"user_id":   userID.String(),
					"course_id": courseID.String(),
					"error":     err.Error(),
				})
		}
		_, err = s.notifications.CreateForUser(ctx, tx, ob, user,
			types.NotificationCourse,
			fmt.Sprintf("Course completed: %s", course.Title),
			fmt.Sprintf("Congratulations, you finished the course and earned %d points.", granted),
			"/courses/"+courseID.String())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return progress, nil
}

func moduleOf(course *types.Course, moduleID uuid.UUID) *types.CourseModule {
	for i := range course.Modules {
		if course.Modules[i].ID == moduleID {
			return &course.Modules[i]
		}
	}
	return nil
}

func (s *progressService) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (*ProgressSummary, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	summary := &ProgressSummary{
		CourseID:     courseID,
		CourseTitle:  course.Title,
		ModulesTotal: len(course.Modules),
	}
	progress, err := s.progressRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if storeerr.IsNotFound(err) {
		return summary, nil
	}
	if err != nil {
		return nil, err
	}
	summary.ModulesCompleted = len(progress.CompletedModuleIDs)
	if summary.ModulesTotal > 0 {
		summary.Percent = float64(summary.ModulesCompleted) / float64(summary.ModulesTotal) * 100
	}
	return summary, nil
}

func (s *progressService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserProgress, error) {
	return s.progressRepo.ListForUser(ctx, nil, userID)
}
