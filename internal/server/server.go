// Package server exposes the store operations over HTTP. This is the
// surface a remote-mode instance and the sync engine talk to; handlers stay
// thin and all semantics live in the provider underneath.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/provider"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
)

// SyncRepos are the per-entity upsert targets of the sync surface.
type SyncRepos struct {
	Users         repos.UserRepo
	Courses       repos.CourseRepo
	Enrollments   repos.EnrollmentRepo
	Progress      repos.ProgressRepo
	Paths         repos.LearningPathRepo
	Badges        repos.BadgeRepo
	Notifications repos.NotificationRepo
}

type Server struct {
	log   *logger.Logger
	store provider.Provider
	sync  SyncRepos
}

func New(baseLog *logger.Logger, store provider.Provider, sync SyncRepos) *Server {
	return &Server{
		log:   baseLog.With("component", "Server"),
		store: store,
		sync:  sync,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		RespondOK(c, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users", s.registerUser)
		v1.GET("/users", s.listUsers)
		v1.GET("/users/:id", s.getUser)
		v1.POST("/users/:id/approve", s.approveUser)
		v1.POST("/users/:id/suspend", s.suspendUser)
		v1.POST("/users/:id/forum-posts", s.recordForumPost)
		v1.DELETE("/users/:id", s.deleteUser)
		v1.GET("/users/:id/enrollments", s.listEnrollmentsForStudent)
		v1.GET("/users/:id/courses/:courseId/progress", s.getProgress)
		v1.GET("/users/:id/badges", s.listBadges)
		v1.GET("/users/:id/paths", s.listPathSummaries)
		v1.GET("/users/:id/notifications", s.listNotifications)

		v1.POST("/courses", s.createCourse)
		v1.GET("/courses", s.listCourses)
		v1.GET("/courses/:id", s.getCourse)
		v1.POST("/courses/:id/publish", s.publishCourse)
		v1.GET("/courses/:id/enrollments", s.listEnrollmentsForCourse)

		v1.POST("/enrollments", s.requestEnrollment)
		v1.GET("/enrollments/:id", s.getEnrollment)
		v1.POST("/enrollments/:id/review", s.reviewEnrollment)
		v1.POST("/enrollments/:id/cancel", s.cancelEnrollment)
		v1.POST("/enrollments/:id/terminate", s.terminateEnrollment)

		v1.POST("/progress/complete", s.completeModule)

		v1.POST("/paths", s.createPath)
		v1.GET("/paths", s.listPaths)

		v1.POST("/notifications/:id/read", s.markNotificationRead)

		v1.GET("/reports/compliance", s.complianceReport)
		v1.GET("/reports/leaderboard", s.leaderboard)
		v1.GET("/system-logs", s.listSystemLogs)

		v1.PUT("/sync/:entity/:id", s.syncUpsert)
	}
	return r
}
