package app

import (
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
)

type Repos struct {
	Users         repos.UserRepo
	Courses       repos.CourseRepo
	Enrollments   repos.EnrollmentRepo
	Progress      repos.ProgressRepo
	Paths         repos.LearningPathRepo
	Badges        repos.BadgeRepo
	Notifications repos.NotificationRepo
	SystemLogs    repos.SystemLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:         repos.NewUserRepo(db, log),
		Courses:       repos.NewCourseRepo(db, log),
		Enrollments:   repos.NewEnrollmentRepo(db, log),
		Progress:      repos.NewProgressRepo(db, log),
		Paths:         repos.NewLearningPathRepo(db, log),
		Badges:        repos.NewBadgeRepo(db, log),
		Notifications: repos.NewNotificationRepo(db, log),
		SystemLogs:    repos.NewSystemLogRepo(db, log),
	}
}
