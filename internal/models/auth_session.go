package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuthSession is one passwordless login attempt. Secret holds the 6-digit
// code in cleartext so an operator can recover an undelivered code; sessions
// live ~5 minutes and are purged by the retention janitor.
type AuthSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"not null;size:255;index" json:"username"`
	Secret    string         `gorm:"size:16" json:"-"`
	PhoneHint string         `gorm:"size:16" json:"phone_hint"`
	Steps     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}
