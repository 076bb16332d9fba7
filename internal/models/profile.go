package models

import "gorm.io/gorm"

// Profile holds the personal data attached one-to-one to a user.
type Profile struct {
	ID         string `json:"-" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"-" gorm:"uniqueIndex;type:varchar(36)"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"omitempty,max=100"`
	Company    string `json:"company" validate:"omitempty,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	gorm.Model `json:"-"`
}
