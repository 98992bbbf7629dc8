package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
)

type CourseModality string

const (
	ModalityOnline    CourseModality = "online"
	ModalityInPerson  CourseModality = "in_person"
	ModalityBlended   CourseModality = "blended"
	ModalitySelfPaced CourseModality = "self_paced"
)

type Course struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string                    `gorm:"not null;column:title" json:"title"`
	Modality     CourseModality            `gorm:"not null;column:modality" json:"modality"`
	Status       CourseStatus              `gorm:"not null;index;column:status" json:"status"`
	Capacity     *int                      `gorm:"column:capacity" json:"capacity,omitempty"`
	StartDate    *time.Time                `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate      *time.Time                `gorm:"column:end_date" json:"end_date,omitempty"`
	MandatoryFor datatypes.JSONSlice[Role] `gorm:"column:mandatory_for" json:"mandatory_for"`
	Modules      []CourseModule            `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID" json:"modules"`
	Dirty        bool                      `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt    time.Time                 `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// MandatoryForRole reports whether the course is part of the mandatory
// curriculum for the given role.
func (c *Course) MandatoryForRole(role Role) bool {
	for _, r := range c.MandatoryFor {
		if r == role {
			return true
		}
	}
	return false
}

// Started reports whether the course window has opened at the given time.
// A course with no start date is considered always open.
func (c *Course) Started(at time.Time) bool {
	return c.StartDate == nil || !c.StartDate.After(at)
}

// CourseModule is exclusively owned by its Course; it has no lifecycle of
// its own.
type CourseModule struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Title    string    `gorm:"not null;column:title" json:"title"`
	Position int       `gorm:"not null;column:position" json:"position"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
