package types

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// Privileged roles need an admin sign-off before the account becomes usable.
func (r Role) Privileged() bool {
	return r == RoleInstructor || r == RoleManager || r == RoleAdmin
}

type Department string

const (
	DepartmentEngineering Department = "engineering"
	DepartmentSales       Department = "sales"
	DepartmentHR          Department = "hr"
	DepartmentOperations  Department = "operations"
	DepartmentGeneral     Department = "general"
)

type UserStatus string

const (
	UserStatusPendingApproval UserStatus = "pending_approval"
	UserStatusApproved        UserStatus = "approved"
	UserStatusSuspended       UserStatus = "suspended"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"not null;column:name" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string     `gorm:"column:password_hash" json:"-"`
	Role         Role       `gorm:"not null;index;column:role" json:"role"`
	Department   Department `gorm:"not null;column:department" json:"department"`
	Status       UserStatus `gorm:"not null;index;column:status" json:"status"`
	Points       int        `gorm:"not null;default:0;column:points" json:"points"`
	ForumPosts   int        `gorm:"not null;default:0;column:forum_posts" json:"forum_posts"`
	NotifyEmail  bool       `gorm:"not null;default:true;column:notify_email" json:"notify_email"`
	NotifyChat   bool       `gorm:"not null;default:true;column:notify_chat" json:"notify_chat"`
	Dirty        bool       `gorm:"not null;default:false;index;column:dirty" json:"dirty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
