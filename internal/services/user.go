package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

var validate = validator.New()

type RegisterUser struct {
	Name       string           `json:"name" validate:"required"`
	Email      string           `json:"email" validate:"required,email"`
	Password   string           `json:"password" validate:"required,min=8"`
	Role       types.Role       `json:"role" validate:"required,oneof=student instructor manager admin"`
	Department types.Department `json:"department" validate:"required"`
}

type UserService interface {
	// Register creates the account. Privileged roles start in
	// pending_approval and need an admin sign-off; students are approved
	// immediately, welcomed and bootstrapped onto their role's paths.
	Register(ctx context.Context, in RegisterUser) (*types.User, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	List(ctx context.Context) ([]*types.User, error)

	// Approve moves a pending_approval account to approved.
	Approve(ctx context.Context, id uuid.UUID) (*types.User, error)
	Suspend(ctx context.Context, id uuid.UUID) (*types.User, error)

	// RecordForumPost bumps the forum counter and re-evaluates badges.
	RecordForumPost(ctx context.Context, id uuid.UUID) (*types.User, error)

	// Delete removes the user and every dependent record.
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	log              *logger.Logger
	db               *gorm.DB
	userRepo         repos.UserRepo
	enrollmentRepo   repos.EnrollmentRepo
	progressRepo     repos.ProgressRepo
	badgeRepo        repos.BadgeRepo
	notificationRepo repos.NotificationRepo
	pathRepo         repos.LearningPathRepo
	syslogRepo       repos.SystemLogRepo
	notifications    NotificationService
	paths            LearningPathService
	gamification     GamificationService
}

func NewUserService(
	baseLog *logger.Logger,
	db *gorm.DB,
	userRepo repos.UserRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.ProgressRepo,
	badgeRepo repos.BadgeRepo,
	notificationRepo repos.NotificationRepo,
	pathRepo repos.LearningPathRepo,
	syslogRepo repos.SystemLogRepo,
	notifications NotificationService,
	paths LearningPathService,
	gamification GamificationService,
) UserService {
	return &userService{
		log:              baseLog.With("service", "UserService"),
		db:               db,
		userRepo:         userRepo,
		enrollmentRepo:   enrollmentRepo,
		progressRepo:     progressRepo,
		badgeRepo:        badgeRepo,
		notificationRepo: notificationRepo,
		pathRepo:         pathRepo,
		syslogRepo:       syslogRepo,
		notifications:    notifications,
		paths:            paths,
		gamification:     gamification,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterUser) (*types.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, storeerr.New(storeerr.KindConstraintViolation, "", fmt.Errorf("register: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	status := types.UserStatusApproved
	if in.Role.Privileged() {
		status = types.UserStatusPendingApproval
	}
	row := &types.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         in.Role,
		Department:   in.Department,
		Status:       status,
		NotifyEmail:  true,
		NotifyChat:   true,
	}

	ob := &Outbox{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, row); err != nil {
			if storeerr.IsConstraintViolation(err) {
				return storeerr.Newf(storeerr.KindConstraintViolation, storeerr.CodeEmailExists,
					"email %s already registered", row.Email)
			}
			return err
		}
		s.log.Info("User registered", "user_id", row.ID, "role", row.Role, "status", row.Status)

		if row.Status != types.UserStatusApproved {
			return nil
		}
		if err := s.paths.BootstrapForUser(ctx, tx, row); err != nil {
			return err
		}
		_, err := s.notifications.CreateForUser(ctx, tx, ob, row,
			types.NotificationAccount,
			"Welcome aboard",
			fmt.Sprintf("Hi %s, your account is ready. Browse the course catalog to get started.", row.Name),
			"/courses")
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return s.userRepo.GetByID(ctx, nil, id)
}

func (s *userService) List(ctx context.Context) ([]*types.User, error) {
	return s.userRepo.List(ctx, nil)
}

func (s *userService) Approve(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var row *types.User
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.userRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row.Status != types.UserStatusPendingApproval {
			return storeerr.Newf(storeerr.KindInvalidTransition, "",
				"user %s is %s, not pending approval", id, row.Status)
		}
		row.Status = types.UserStatusApproved
		if err := s.userRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("User approved", "user_id", row.ID)

		if err := s.paths.BootstrapForUser(ctx, tx, row); err != nil {
			return err
		}
		_, err = s.notifications.CreateForUser(ctx, tx, ob, row,
			types.NotificationAccount,
			"Account approved",
			"An administrator approved your account. You can now sign in.",
			"/login")
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

func (s *userService) Suspend(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var row *types.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.userRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row.Status == types.UserStatusSuspended {
			return nil
		}
		row.Status = types.UserStatusSuspended
		if err := s.userRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		s.log.Info("User suspended", "user_id", row.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *userService) RecordForumPost(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var row *types.User
	ob := &Outbox{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = s.userRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		row.ForumPosts++
		if err := s.userRepo.Save(ctx, tx, row); err != nil {
			return err
		}
		return s.gamification.EvaluateBadges(ctx, tx, ob, row, BadgeEvent{OccurredAt: row.UpdatedAt})
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Flush(ob)
	return row, nil
}

// Delete walks dependents with an explicit worklist instead of recursing:
// each step dequeues a user id and removes its dependent rows before the
// user row itself.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.GetByID(ctx, tx, id); err != nil {
			return err
		}

		worklist := []uuid.UUID{id}
		var deleted []uuid.UUID
		for len(worklist) > 0 {
			userID := worklist[0]
			worklist = worklist[1:]

			if err := s.enrollmentRepo.DeleteByStudent(ctx, tx, userID); err != nil {
				return err
			}
			if err := s.progressRepo.DeleteByUser(ctx, tx, userID); err != nil {
				return err
			}
			if err := s.pathRepo.DeleteProgressByUser(ctx, tx, userID); err != nil {
				return err
			}
			if err := s.badgeRepo.DeleteByUser(ctx, tx, userID); err != nil {
				return err
			}
			if err := s.notificationRepo.DeleteByUser(ctx, tx, userID); err != nil {
				return err
			}
			deleted = append(deleted, userID)
		}
		if err := s.userRepo.DeleteByIDs(ctx, tx, deleted); err != nil {
			return err
		}
		s.log.Info("User deleted", "user_id", id)
		return s.syslogRepo.Record(ctx, tx, types.LogLevelInfo,
			"user hard-deleted with dependents",
			map[string]any{"user_id": id.String()})
	})
}
