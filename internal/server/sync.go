package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// syncUpsert is the idempotent per-record landing point of the sync engine.
// Records key on their client-minted uuid; conflicts resolve last-write-wins
// by updated_at inside the repos.
func (s *Server) syncUpsert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	entity := c.Param("entity")

	var err error
	switch entity {
	case "users":
		var row types.User
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Users.ApplyRemote(ctx, nil, &row)
	case "courses":
		var row types.Course
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Courses.ApplyRemote(ctx, nil, &row)
	case "enrollments":
		var row types.Enrollment
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Enrollments.ApplyRemote(ctx, nil, &row)
	case "progress":
		var row types.UserProgress
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Progress.ApplyRemote(ctx, nil, &row)
	case "path-progress":
		var row types.UserLearningPathProgress
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Paths.ApplyRemoteProgress(ctx, nil, &row)
	case "badges":
		var row types.UserBadge
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Badges.ApplyRemote(ctx, nil, &row)
	case "notifications":
		var row types.Notification
		if bindErr := c.ShouldBindJSON(&row); bindErr != nil {
			RespondBadRequest(c, bindErr)
			return
		}
		row.ID = id
		err = s.sync.Notifications.ApplyRemote(ctx, nil, &row)
	default:
		RespondBadRequest(c, fmt.Errorf("unknown sync entity %q", entity))
		return
	}

	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"entity": entity, "id": id, "synced": true})
}
