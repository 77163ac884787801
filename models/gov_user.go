package models

import "time"

// GovUser represents the gov_users table. Government reviewers issue the
// final approval or rejection on endorsed submissions.
type GovUser struct {
	ID         uint       `gorm:"primaryKey;column:id" json:"id"`
	Name       string     `gorm:"column:name" json:"name"`
	Email      string     `gorm:"column:email;uniqueIndex" json:"email"`
	Password   string     `gorm:"column:password" json:"-"`
	Department string     `gorm:"column:department" json:"department"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name for GovUser.
func (GovUser) TableName() string {
	return "gov_users"
}
