package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the identity record. OTP users carry no password; PasswordHash is
// only set for the env-seeded bootstrap admin.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"not null;size:255;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255" json:"email"`
	Phone        string         `gorm:"size:32" json:"phone"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	CustomRole   string         `gorm:"size:50" json:"role"`
	Enabled      bool           `gorm:"default:true" json:"enabled"`
	Status       string         `gorm:"size:50;default:'CONFIRMED'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Group mirrors a role as a membership construct, the way the role groups of
// an identity pool mirror the role table.
type Group struct {
	Name        string    `gorm:"primaryKey;size:50" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	BuiltIn     bool      `gorm:"default:false" json:"built_in"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMembership links a user to a group. Membership order for token claims
// is group name ascending, which keeps claim order stable across logins.
type GroupMembership struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	GroupName string    `gorm:"primaryKey;size:50" json:"group_name"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}
