package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trainhubhq/trainhub-backend/internal/services"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) registerUser(c *gin.Context) {
	var in services.RegisterUser
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	user, err := s.store.RegisterUser(c.Request.Context(), in)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondCreated(c, user)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, users)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, user)
}

func (s *Server) approveUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.ApproveUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, user)
}

func (s *Server) suspendUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.SuspendUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, user)
}

func (s *Server) recordForumPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.RecordForumPost(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteUser(c.Request.Context(), id); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (s *Server) createCourse(c *gin.Context) {
	var in services.NewCourse
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	course, err := s.store.CreateCourse(c.Request.Context(), in)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondCreated(c, course)
}

func (s *Server) listCourses(c *gin.Context) {
	publishedOnly := c.Query("published") == "true"
	courses, err := s.store.ListCourses(c.Request.Context(), publishedOnly)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, courses)
}

func (s *Server) getCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, err := s.store.GetCourse(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, course)
}

func (s *Server) publishCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, err := s.store.PublishCourse(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, course)
}

type enrollmentRequest struct {
	StudentID     uuid.UUID `json:"student_id" binding:"required"`
	CourseID      uuid.UUID `json:"course_id" binding:"required"`
	Justification string    `json:"justification"`
}

func (s *Server) requestEnrollment(c *gin.Context) {
	var in enrollmentRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	row, err := s.store.RequestEnrollment(c.Request.Context(), in.StudentID, in.CourseID, in.Justification)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (s *Server) getEnrollment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := s.store.GetEnrollment(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, row)
}

func (s *Server) reviewEnrollment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Decision types.EnrollmentStatus `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	row, err := s.store.ReviewEnrollment(c.Request.Context(), id, in.Decision)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, row)
}

func (s *Server) cancelEnrollment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := s.store.CancelEnrollment(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, row)
}

func (s *Server) terminateEnrollment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status types.EnrollmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	row, err := s.store.TerminateEnrollment(c.Request.Context(), id, in.Status)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, row)
}

func (s *Server) listEnrollmentsForStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.ListEnrollmentsForStudent(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (s *Server) listEnrollmentsForCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.ListEnrollmentsForCourse(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

type completeModuleRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	ModuleID uuid.UUID `json:"module_id" binding:"required"`
}

func (s *Server) completeModule(c *gin.Context) {
	var in completeModuleRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	progress, err := s.store.CompleteModule(c.Request.Context(), in.UserID, in.CourseID, in.ModuleID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, progress)
}

func (s *Server) getProgress(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondBadRequest(c, err)
		return
	}
	summary, err := s.store.GetProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (s *Server) listBadges(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.ListBadgesForUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (s *Server) createPath(c *gin.Context) {
	var in services.NewLearningPath
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondBadRequest(c, err)
		return
	}
	row, err := s.store.CreateLearningPath(c.Request.Context(), in)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (s *Server) listPaths(c *gin.Context) {
	rows, err := s.store.ListLearningPaths(c.Request.Context())
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (s *Server) listPathSummaries(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.PathSummariesForUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (s *Server) listNotifications(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := s.store.GetNotificationsForUser(c.Request.Context(), id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.MarkNotificationRead(c.Request.Context(), id); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"read": id})
}

func (s *Server) complianceReport(c *gin.Context) {
	var filter services.ComplianceFilter
	if raw := c.Query("role"); raw != "" {
		role := types.Role(raw)
		filter.Role = &role
	}
	if raw := c.Query("department"); raw != "" {
		dept := types.Department(raw)
		filter.Department = &dept
	}
	report, err := s.store.ComplianceReport(c.Request.Context(), filter)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, report)
}

func (s *Server) leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := s.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, entries)
}

func (s *Server) listSystemLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	rows, err := s.store.ListSystemLogs(c.Request.Context(), limit)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, rows)
}
