package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// SystemLog is append-only. It is the sink for notification delivery and
// sync failures, driving the in-app log viewer.
type SystemLog struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Level     LogLevel          `gorm:"not null;index;column:level" json:"level"`
	Message   string            `gorm:"not null;column:message" json:"message"`
	Details   datatypes.JSONMap `gorm:"column:details" json:"details"`
	CreatedAt time.Time         `gorm:"not null;index" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}
