package models

import "gorm.io/gorm"

// Application represents an application a user has deployed on the platform.
// Only its distinct count per user is read here.
type Application struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	Name       string `json:"name" gorm:"type:varchar(255)"`
	RepoURL    string `json:"repo_url" gorm:"type:varchar(500)"`
	Status     string `json:"status" gorm:"type:varchar(32)"` // e.g. "building", "deployed", "failed"
	gorm.Model `json:"-"`
}
