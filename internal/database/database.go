package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/denizaksu/calcgate/internal/config"
	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/rbac"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all models.
func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Role{},
		&models.HistoryEntry{},
		&models.AuthSession{},
		&models.RefreshToken{},
		&models.SystemLog{},
	)
}

// Seed creates the built-in role groups and, when configured, the bootstrap
// admin. Idempotent; safe to run on every start.
func Seed(db *gorm.DB, cfg *config.Config) error {
	for _, name := range rbac.BuiltinOrder {
		group := models.Group{Name: name, Description: "Built-in role: " + name, BuiltIn: true}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
			return fmt.Errorf("failed to seed group %s: %w", name, err)
		}
	}

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.User
	if err := db.First(&existing, "username = ?", cfg.AdminUsername).Error; err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	admin := models.User{
		ID:           uuid.New(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		CustomRole:   rbac.RoleAdmin,
		Enabled:      true,
		Status:       "CONFIRMED",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}

	membership := models.GroupMembership{UserID: admin.ID, GroupName: rbac.RoleAdmin}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		return fmt.Errorf("failed to grant bootstrap admin group: %w", err)
	}

	slog.Info("bootstrap admin seeded", "username", cfg.AdminUsername)
	return nil
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
