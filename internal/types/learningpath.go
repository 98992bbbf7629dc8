package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LearningPath names a target role and the ordered courses that make up the
// curriculum for that role.
type LearningPath struct {
	ID         uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string                         `gorm:"not null;column:name" json:"name"`
	TargetRole Role                           `gorm:"not null;index;column:target_role" json:"target_role"`
	CourseIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"column:course_ids" json:"course_ids"`
	CreatedAt  time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                      `gorm:"not null" json:"updated_at"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

func (p *LearningPath) ContainsCourse(courseID uuid.UUID) bool {
	for _, id := range p.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// UserLearningPathProgress is created lazily the first time a user's role
// matches a path, and never duplicated.
type UserLearningPathProgress struct {
	ID                 uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_path_progress_user_path;column:user_id" json:"user_id"`
	PathID             uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_path_progress_user_path;column:path_id" json:"path_id"`
	CompletedCourseIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:completed_course_ids" json:"completed_course_ids"`
	Dirty              bool                           `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt          time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time                      `gorm:"not null" json:"updated_at"`
}

func (UserLearningPathProgress) TableName() string {
	return "user_learning_path_progress"
}

func (p *UserLearningPathProgress) HasCourse(courseID uuid.UUID) bool {
	for _, id := range p.CompletedCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
