package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserProgress tracks which modules of a course a user has completed.
// One row per (user, course); created on the first module completion.
type UserProgress struct {
	ID                 uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course;column:user_id" json:"user_id"`
	CourseID           uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course;column:course_id" json:"course_id"`
	CompletedModuleIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:completed_module_ids" json:"completed_module_ids"`
	Dirty              bool                           `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt          time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time                      `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func (p *UserProgress) HasModule(moduleID uuid.UUID) bool {
	for _, id := range p.CompletedModuleIDs {
		if id == moduleID {
			return true
		}
	}
	return false
}
