package models

import "time"

// Role tags carried on the user record. Reviewer capability is an explicit
// tag, not a job-title string match.
const (
	RoleUser          = "user"
	RoleSafetyManager = "safety_manager"
	RoleAdmin         = "admin"
)

type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	FullName  string     `gorm:"column:full_name" json:"full_name"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	Role      string     `gorm:"column:role" json:"role"`
	JobTitle  *string    `gorm:"column:job_title" json:"job_title,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

// CanReview reports whether the user may be assigned as an RMP reviewer.
func (u *User) CanReview() bool {
	return u.Role == RoleSafetyManager || u.Role == RoleAdmin
}

// TableName specifies the table for User.
func (User) TableName() string {
	return "users"
}
