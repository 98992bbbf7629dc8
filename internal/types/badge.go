package types

import (
	"time"

	"github.com/google/uuid"
)

type BadgeCode string

const (
	BadgeFirstModule      BadgeCode = "first_module"
	BadgeTenModules       BadgeCode = "ten_modules"
	BadgeFirstCourse      BadgeCode = "first_course"
	BadgeFiveCourses      BadgeCode = "five_courses"
	BadgeOnTime           BadgeCode = "on_time"
	BadgeWeekendLearner   BadgeCode = "weekend_learner"
	BadgeForumContributor BadgeCode = "forum_contributor"
)

// Badge is a static catalog entry seeded at startup.
type Badge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        BadgeCode `gorm:"uniqueIndex;not null;column:code" json:"code"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge is an earned-once fact: at most one row per (user, badge).
type UserBadge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge;column:user_id" json:"user_id"`
	BadgeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge;column:badge_id" json:"badge_id"`
	AwardedAt time.Time `gorm:"not null;column:awarded_at" json:"awarded_at"`
	Dirty     bool      `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
