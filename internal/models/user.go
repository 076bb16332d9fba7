package models

import "gorm.io/gorm"

// User represents a registered account in the hosting panel.
type User struct {
	ID           string        `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string        `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email        string        `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password     string        `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"` // bcrypt hash, never serialized
	Profile      *Profile      `json:"profile,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	VPS          []VPS         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Applications []Application `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	gorm.Model   `json:"-"`    // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// UserAccount is the read model returned by the profile and listing endpoints.
// The three extra fields are derived per read from the user's related records
// and are never persisted.
type UserAccount struct {
	User
	VPSCount             int64    `json:"vps_count"`
	Workload             Workload `json:"workload"`
	ApplicationsDeployed int64    `json:"applications_deployed"`
}

// ResourceCounts holds the per-user aggregates the read path derives its
// annotation fields from.
type ResourceCounts struct {
	VPS          int64
	Applications int64
}
