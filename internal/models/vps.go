package models

import "gorm.io/gorm"

// VPS represents a virtual server owned by a user. The account service only
// ever counts these records; provisioning lives elsewhere.
type VPS struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	Hostname   string `json:"hostname" gorm:"type:varchar(255)"`
	IPAddress  string `json:"ip_address" gorm:"type:varchar(45)"`
	Plan       string `json:"plan" gorm:"type:varchar(100)"`
	Status     string `json:"status" gorm:"type:varchar(32)"` // e.g. "provisioning", "running", "stopped"
	gorm.Model `json:"-"`
}

// TableName keeps the table name aligned with the short form used everywhere
// in the API ("vps", not "vp_s" as GORM would pluralize it).
func (VPS) TableName() string {
	return "vps"
}
