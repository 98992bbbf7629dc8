package types

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationEnrollment   NotificationType = "enrollment"
	NotificationBadge        NotificationType = "badge"
	NotificationCourse       NotificationType = "course"
	NotificationAccount      NotificationType = "account"
	NotificationAnnouncement NotificationType = "announcement"
)

// Notification is the durable in-app record. Channel delivery (email, chat)
// is best-effort on top of it.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Type      NotificationType `gorm:"not null;column:type" json:"type"`
	Title     string           `gorm:"not null;column:title" json:"title"`
	Body      string           `gorm:"column:body" json:"body"`
	Link      string           `gorm:"column:link" json:"link,omitempty"`
	Read      bool             `gorm:"not null;default:false;column:read" json:"read"`
	Dirty     bool             `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
