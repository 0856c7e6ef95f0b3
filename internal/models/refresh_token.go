package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken holds the SHA-256 of an issued refresh token. Raw tokens are
// never persisted, so a leaked table cannot mint sessions.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"default:false"`
	CreatedAt time.Time
}
