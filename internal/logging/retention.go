package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/denizaksu/calcgate/internal/models"
)

// StartRetention runs an hourly goroutine that deletes system_logs older
// than 30 days, expired auth sessions and dead refresh tokens.
func StartRetention(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(db)
			case <-done:
				return
			}
		}
	}()
}

func sweep(db *gorm.DB) {
	now := time.Now()

	logCutoff := now.AddDate(0, 0, -30)
	if result := db.Where("timestamp < ?", logCutoff).Delete(&models.SystemLog{}); result.Error != nil {
		slog.Error("system log retention sweep failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("system logs pruned", "deleted", result.RowsAffected)
	}

	if result := db.Where("expires_at < ?", now).Delete(&models.AuthSession{}); result.Error != nil {
		slog.Error("auth session sweep failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("expired auth sessions pruned", "deleted", result.RowsAffected)
	}

	if result := db.Where("expires_at < ? OR revoked = true", now).Delete(&models.RefreshToken{}); result.Error != nil {
		slog.Error("refresh token sweep failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("dead refresh tokens pruned", "deleted", result.RowsAffected)
	}
}
