package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/notify"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/services"
)

type Services struct {
	Users         services.UserService
	Courses       services.CourseService
	Enrollments   services.EnrollmentService
	Progress      services.ProgressService
	Gamification  services.GamificationService
	Paths         services.LearningPathService
	Compliance    services.ComplianceService
	Notifications services.NotificationService
	Sync          services.SyncService
	Dispatcher    *notify.Dispatcher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, cache *redis.Client) (Services, error) {
	var senders []notify.Sender
	if cfg.SendgridAPIKey != "" {
		email, err := notify.NewEmailSender(log, notify.EmailConfig{
			APIKey:    cfg.SendgridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		})
		if err != nil {
			return Services{}, err
		}
		senders = append(senders, email)
	} else {
		senders = append(senders, notify.NewConsoleSender(log))
	}
	if cfg.ChatWebhookURL != "" {
		chat, err := notify.NewChatSender(log, notify.ChatConfig{WebhookURL: cfg.ChatWebhookURL})
		if err != nil {
			return Services{}, err
		}
		senders = append(senders, chat)
	}
	dispatcher := notify.NewDispatcher(log, reposet.SystemLogs, senders, cfg.DispatchQueueSize)

	notifications := services.NewNotificationService(log, reposet.Notifications, dispatcher)
	paths := services.NewLearningPathService(log, reposet.Paths)
	gamification := services.NewGamificationService(log,
		reposet.Users, reposet.Badges, reposet.Progress, reposet.Enrollments,
		notifications, cache)
	enrollments := services.NewEnrollmentService(log, db,
		reposet.Enrollments, reposet.Courses, reposet.Users, reposet.SystemLogs,
		notifications, gamification, paths)
	progress := services.NewProgressService(log, db,
		reposet.Progress, reposet.Courses, reposet.Users, reposet.Enrollments,
		reposet.SystemLogs, enrollments, gamification, paths, notifications)
	users := services.NewUserService(log, db,
		reposet.Users, reposet.Enrollments, reposet.Progress, reposet.Badges,
		reposet.Notifications, reposet.Paths, reposet.SystemLogs,
		notifications, paths, gamification)
	courses := services.NewCourseService(log, db, reposet.Courses)
	compliance := services.NewComplianceService(log,
		reposet.Users, reposet.Courses, reposet.Enrollments, cache)

	// The sync engine only exists when a remote backend is configured; a
	// purely local deployment has nowhere to reconcile to.
	var syncSvc services.SyncService
	if cfg.RemoteBaseURL != "" {
		client, err := remoteapi.New(log, remoteapi.Config{
			BaseURL: cfg.RemoteBaseURL,
			APIKey:  cfg.RemoteAPIKey,
			Timeout: cfg.RemoteTimeout,
			Retries: cfg.RemoteRetries,
		})
		if err != nil {
			return Services{}, err
		}
		syncSvc = services.NewSyncService(log, client,
			reposet.Users, reposet.Courses, reposet.Enrollments, reposet.Progress,
			reposet.Paths, reposet.Badges, reposet.Notifications, reposet.SystemLogs)
	}

	return Services{
		Users:         users,
		Courses:       courses,
		Enrollments:   enrollments,
		Progress:      progress,
		Gamification:  gamification,
		Paths:         paths,
		Compliance:    compliance,
		Notifications: notifications,
		Sync:          syncSvc,
		Dispatcher:    dispatcher,
	}, nil
}
