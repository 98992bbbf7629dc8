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

// enrollmentTransitions is the full state machine. A status missing from the
// map is terminal; a target missing from the slice is an illegal move.
var enrollmentTransitions = map[types.EnrollmentStatus][]types.EnrollmentStatus{
	types.EnrollmentPending: {
		types.EnrollmentApproved,
		types.EnrollmentRejected,
		types.EnrollmentWaitlisted,
		types.EnrollmentNeedsReview,
		types.EnrollmentCancelled,
	},
	types.EnrollmentWaitlisted: {
		types.EnrollmentApproved,
		types.EnrollmentRejected,
		types.EnrollmentCancelled,
	},
	types.EnrollmentNeedsReview: {
		types.EnrollmentApproved,
		types.EnrollmentRejected,
	},
	types.EnrollmentApproved: {
		types.EnrollmentActive,
		types.EnrollmentCompleted,
		types.EnrollmentExpelled,
		types.EnrollmentExpired,
	},
	types.EnrollmentActive: {
		types.EnrollmentCompleted,
		types.EnrollmentExpelled,
		types.EnrollmentExpired,
	},
}

func canTransition(from, to types.EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to types.EnrollmentStatus) error {
	return storeerr.Newf(storeerr.KindInvalidTransition, "",
		"enrollment transition %s -> %s not allowed", from, to)
}

type EnrollmentService interface {
	// Request opens a new enrollment episode in pending. Guards:
	// DuplicateRequest when a non-terminal episode exists for the pair,
	// CourseFull when the course declares a capacity and the seats
	// (approved, active, completed) have reached it.
	Request(ctx context.Context, studentID, courseID uuid.UUID, justification string) (*types.Enrollment, error)
	// Review applies an administrative decision on a pending, waitlisted
	// or needs_review enrollment. Approval notifies the student and
	// auto-promotes to active when the course window has already opened;
	// activation on a zero-module course completes the enrollment outright.
	Review(ctx context.Context, id uuid.UUID, decision types.EnrollmentStatus) (*types.Enrollment, error)
	// Cancel is the student-facing self-service exit.
	Cancel(ctx context.Context, id uuid.UUID) (*types.Enrollment, error)
	// Terminate applies an administrative terminal move (expelled, expired).
	Terminate(ctx context.Context, id uuid.UUID, to types.EnrollmentStatus) (*types.Enrollment, error)

	Get(ctx context.Context, id uuid.UUID) (*types.Enrollment, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	ListForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Enrollment, error)

	// CompleteFromProgress force-transitions the current episode to
	// completed once every module of the course is done. Runs inside the
	// caller's transaction; the caller owns commit and outbox flush.
	CompleteFromProgress(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) error
}

type enrollmentService struct {
	log            *logger.Logger
	db             *gorm.DB
	enrollmentRepo repos.EnrollmentRepo
	courseRepo     repos.CourseRepo
	userRepo       repos.UserRepo
	syslogRepo     repos.SystemLogRepo
	notifications  NotificationService
	gamification   GamificationService
	paths          LearningPathService
}

func NewEnrollmentService(
	baseLog *logger.Logger,
	db *gorm.DB,
	enrollmentRepo repos.EnrollmentRepo,
	courseRepo repos.CourseRepo,
	userRepo repos.UserRepo,
	syslogRepo repos.SystemLogRepo,
	notifications NotificationService,
	gamification GamificationService,
	paths LearningPathService,
) EnrollmentService {
	return &enrollmentService{
		log:            baseLog.With("service", "EnrollmentService"),
		db:             db,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		syslogRepo:     syslogRepo,
		notifications:  notifications,
		gamification:   gamification,
		paths:          paths,
	}
}

func (s *enrollmentService) Request(ctx context.Context, studentID, courseID uuid.UUID, justification string) (*types.Enrollment, error) {
	var row *types.Enrollment
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		student, err := s.userRepo.GetByID(ctx, tx, studentID)
		if err != nil {
			return err
		}
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if course.Status != types.CourseStatusPublished {
			return storeerr.Newf(storeerr.KindConstraintViolation, "",
				"course %s is not published", course.ID)
		}

		exists, err := s.enrollmentRepo.HasActiveEpisode(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}
		if exists {
			return storeerr.Newf(storeerr.KindConstraintViolation, storeerr.CodeDuplicateRequest,
				"student %s already has an open enrollment for course %s", studentID, courseID)
		}

		if course.Capacity != nil {
			seats, err := s.enrollmentRepo.CountSeats(ctx, tx, courseID)
			if err != nil {
				return err
			}
			if seats >= int64(*course.Capacity) {
				return storeerr.Newf(storeerr.KindConstraintViolation, storeerr.CodeCourseFull,
					"course %s is full (capacity %d)", courseID, *course.Capacity)
			}
		}

		row = &types.Enrollment{
			ID:            uuid.New(),
			StudentID:     studentID,
			CourseID:      courseID,
			RequestDate:   time.Now().UTC(),
			Status:        types.EnrollmentPending,
			Justification: justification,
		}
		if err := s.enrollmentRepo.Create(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("Enrollment requested",
			"enrollment_id", row.ID, "student_id", studentID, "course_id", courseID)

		s.recoverable(ctx, tx, row, func() error {
			_, err := s.notifications.CreateForUser(ctx, tx, ob, student,
				types.NotificationEnrollment,
				fmt.Sprintf("Enrollment requested: %s", course.Title),
				"Your enrollment request was received and is awaiting review.",
				"/enrollments/"+row.ID.String())
			return err
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

var reviewDecisions = map[types.EnrollmentStatus]bool{
	types.EnrollmentApproved:    true,
	types.EnrollmentRejected:    true,
	types.EnrollmentWaitlisted:  true,
	types.EnrollmentNeedsReview: true,
}

func (s *enrollmentService) Review(ctx context.Context, id uuid.UUID, decision types.EnrollmentStatus) (*types.Enrollment, error) {
	if !reviewDecisions[decision] {
		return nil, storeerr.Newf(storeerr.KindInvalidTransition, "",
			"%s is not a review decision", decision)
	}

	var row *types.Enrollment
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.enrollmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canTransition(row.Status, decision) {
			return invalidTransition(row.Status, decision)
		}

		course, err := s.courseRepo.GetByID(ctx, tx, row.CourseID)
		if err != nil {
			return err
		}
		student, err := s.userRepo.GetByID(ctx, tx, row.StudentID)
		if err != nil {
			return err
		}

		if decision == types.EnrollmentApproved && course.Capacity != nil {
			seats, err := s.enrollmentRepo.CountSeats(ctx, tx, row.CourseID)
			if err != nil {
				return err
			}
			if seats >= int64(*course.Capacity) {
				return storeerr.Newf(storeerr.KindConstraintViolation, storeerr.CodeCourseFull,
					"course %s is full (capacity %d)", row.CourseID, *course.Capacity)
			}
		}

		row.Status = decision
		if decision == types.EnrollmentApproved && course.Started(time.Now().UTC()) {
			row.Status = types.EnrollmentActive
		}
		if err := s.enrollmentRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("Enrollment reviewed",
			"enrollment_id", row.ID, "decision", decision, "status", row.Status)

		s.recoverable(ctx, tx, row, func() error {
			title, body := reviewNotification(decision, course.Title)
			_, err := s.notifications.CreateForUser(ctx, tx, ob, student,
				types.NotificationEnrollment, title, body,
				"/enrollments/"+row.ID.String())
			return err
		})

		// A course with no modules has nothing left to finish: the
		// enrollment is complete the moment it activates, with the usual
		// course points and path rollup.
		if row.Status == types.EnrollmentActive && len(course.Modules) == 0 {
			if err := s.CompleteFromProgress(ctx, tx, row); err != nil {
				return err
			}
			granted, err := s.gamification.AwardCoursePoints(ctx, tx, ob, student, course, time.Now().UTC())
			if err != nil {
				return err
			}
			s.recoverable(ctx, tx, row, func() error {
				return s.paths.ApplyCourseCompletion(ctx, tx, student, row.CourseID)
			})
			s.recoverable(ctx, tx, row, func() error {
				_, err := s.notifications.CreateForUser(ctx, tx, ob, student,
					types.NotificationCourse,
					fmt.Sprintf("Course completed: %s", course.Title),
					fmt.Sprintf("Congratulations, you finished the course and earned %d points.", granted),
					"/courses/"+row.CourseID.String())
				return err
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

func reviewNotification(decision types.EnrollmentStatus, courseTitle string) (string, string) {
	switch decision {
	case types.EnrollmentApproved:
		return fmt.Sprintf("Enrollment approved: %s", courseTitle),
			"Your enrollment was approved. See you in class."
	case types.EnrollmentRejected:
		return fmt.Sprintf("Enrollment rejected: %s", courseTitle),
			"Your enrollment request was rejected."
	case types.EnrollmentWaitlisted:
		return fmt.Sprintf("Waitlisted: %s", courseTitle),
			"The course is currently full. You were placed on the waitlist."
	default:
		return fmt.Sprintf("Enrollment under review: %s", courseTitle),
			"Your enrollment request needs an additional review."
	}
}

func (s *enrollmentService) Cancel(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	var row *types.Enrollment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.enrollmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canTransition(row.Status, types.EnrollmentCancelled) {
			return invalidTransition(row.Status, types.EnrollmentCancelled)
		}
		row.Status = types.EnrollmentCancelled
		if err := s.enrollmentRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("Enrollment cancelled", "enrollment_id", row.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *enrollmentService) Terminate(ctx context.Context, id uuid.UUID, to types.EnrollmentStatus) (*types.Enrollment, error) {
	if to != types.EnrollmentExpelled && to != types.EnrollmentExpired {
		return nil, storeerr.Newf(storeerr.KindInvalidTransition, "",
			"%s is not an administrative terminal status", to)
	}

	var row *types.Enrollment
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.enrollmentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canTransition(row.Status, to) {
			return invalidTransition(row.Status, to)
		}
		row.Status = to
		if err := s.enrollmentRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("Enrollment terminated", "enrollment_id", row.ID, "status", to)

		s.recoverable(ctx, tx, row, func() error {
			student, err := s.userRepo.GetByID(ctx, tx, row.StudentID)
			if err != nil {
				return err
			}
			course, err := s.courseRepo.GetByID(ctx, tx, row.CourseID)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Enrollment closed: %s", course.Title)
			body := "Your enrollment has expired."
			if to == types.EnrollmentExpelled {
				body = "You were removed from the course."
			}
			_, err = s.notifications.CreateForUser(ctx, tx, ob, student,
				types.NotificationEnrollment, title, body,
				"/enrollments/"+row.ID.String())
			return err
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

func (s *enrollmentService) Get(ctx context.Context, id uuid.UUID) (*types.Enrollment, error) {
	return s.enrollmentRepo.GetByID(ctx, nil, id)
}

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	return s.enrollmentRepo.ListForStudent(ctx, nil, studentID)
}

func (s *enrollmentService) ListForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	return s.enrollmentRepo.ListForCourse(ctx, nil, courseID)
}

func (s *enrollmentService) CompleteFromProgress(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) error {
	if enrollment.Status == types.EnrollmentCompleted {
		return nil
	}
	if !canTransition(enrollment.Status, types.EnrollmentCompleted) {
		return invalidTransition(enrollment.Status, types.EnrollmentCompleted)
	}
	enrollment.Status = types.EnrollmentCompleted
	if err := s.enrollmentRepo.Save(ctx, tx, enrollment); err != nil {
		return err
	}
	s.log.Info("Enrollment completed", "enrollment_id", enrollment.ID)
	return nil
}

// recoverable runs a derived effect. A failure is logged and recorded but
// never fails the enclosing transition.
func (s *enrollmentService) recoverable(ctx context.Context, tx *gorm.DB, row *types.Enrollment, fn func() error) {
	if err := fn(); err != nil {
		s.log.Warn("Derived effect failed", "enrollment_id", row.ID, "error", err)
		_ = s.syslogRepo.Record(ctx, tx, types.LogLevelWarn,
			"enrollment derived effect failed",
			map[string]any{
				"enrollment_id": row.ID.String(),
				"status":        string(row.Status),
				"error":         err.Error(),
			})
	}
}
