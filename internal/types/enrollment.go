package types

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentPending     EnrollmentStatus = "pending"
	EnrollmentApproved    EnrollmentStatus = "approved"
	EnrollmentRejected    EnrollmentStatus = "rejected"
	EnrollmentWaitlisted  EnrollmentStatus = "waitlisted"
	EnrollmentNeedsReview EnrollmentStatus = "needs_review"
	EnrollmentActive      EnrollmentStatus = "active"
	EnrollmentCompleted   EnrollmentStatus = "completed"
	EnrollmentCancelled   EnrollmentStatus = "cancelled"
	EnrollmentExpelled    EnrollmentStatus = "expelled"
	EnrollmentExpired     EnrollmentStatus = "expired"
)

// Terminal reports whether the status ends an enrollment episode. A new
// request after a terminal status starts a fresh episode.
func (s EnrollmentStatus) Terminal() bool {
	switch s {
	case EnrollmentCompleted, EnrollmentRejected, EnrollmentCancelled, EnrollmentExpelled, EnrollmentExpired:
		return true
	}
	return false
}

// ActiveEpisodeStatuses are the statuses that block a second enrollment
// request for the same (student, course) pair.
func ActiveEpisodeStatuses() []EnrollmentStatus {
	return []EnrollmentStatus{
		EnrollmentPending,
		EnrollmentApproved,
		EnrollmentWaitlisted,
		EnrollmentNeedsReview,
		EnrollmentActive,
	}
}

// SeatStatuses are the statuses that count against a course capacity.
func SeatStatuses() []EnrollmentStatus {
	return []EnrollmentStatus{
		EnrollmentApproved,
		EnrollmentActive,
		EnrollmentCompleted,
	}
}

type Enrollment struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     uuid.UUID        `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	CourseID      uuid.UUID        `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	RequestDate   time.Time        `gorm:"not null;column:request_date" json:"request_date"`
	Status        EnrollmentStatus `gorm:"not null;index;column:status" json:"status"`
	Justification string           `gorm:"column:justification" json:"justification,omitempty"`
	Dirty         bool             `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
