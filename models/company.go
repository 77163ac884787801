package models

import "time"

// Company represents the companies table. Companies sponsor field workers
// and endorse their submissions before government review.
type Company struct {
	ID                 uint      `gorm:"primaryKey;column:id" json:"id"`
	CompanyName        string    `gorm:"column:company_name" json:"company_name"`
	Email              string    `gorm:"column:email;uniqueIndex" json:"email"`
	Password           string    `gorm:"column:password" json:"-"`
	Phone              string    `gorm:"column:phone" json:"phone"`
	RegistrationNumber string    `gorm:"column:registration_number" json:"registration_number"`
	IndustryType       string    `gorm:"column:industry_type" json:"industry_type"`
	City               string    `gorm:"column:city" json:"city"`
	State              string    `gorm:"column:state" json:"state"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name for Company.
func (Company) TableName() string {
	return "companies"
}
