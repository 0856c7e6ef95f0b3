package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is an admin-defined custom role. The three built-in roles live in code
// and never appear in this table.
type Role struct {
	Name        string         `gorm:"primaryKey;size:50" json:"roleName"`
	Permissions datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
