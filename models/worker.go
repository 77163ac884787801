package models

import "time"

// Worker represents the workers table. Workers are provisioned by their
// sponsoring company and submit field surveys.
type Worker struct {
	ID          uint       `gorm:"primaryKey;column:id" json:"id"`
	WorkerID    string     `gorm:"column:worker_id;uniqueIndex" json:"worker_id"`
	Name        string     `gorm:"column:name" json:"name"`
	Email       string     `gorm:"column:email;uniqueIndex" json:"email"`
	Phone       string     `gorm:"column:phone" json:"phone"`
	Password    string     `gorm:"column:password" json:"-"`
	Designation string     `gorm:"column:designation" json:"designation"`
	CompanyID   uint       `gorm:"column:company_id;index" json:"company_id"`
	IsActive    bool       `gorm:"column:is_active;default:true" json:"is_active"`
	LastLogin   *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName overrides the table name for Worker.
func (Worker) TableName() string {
	return "workers"
}
