package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/denizaksu/calcgate/internal/models"
)

// timestampLayout is RFC 3339 with a fixed nine-digit fraction. RFC3339Nano
// trims trailing zeros, which breaks lexicographic ordering of the stored
// strings; a fixed width keeps "ORDER BY timestamp" correct.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryService is the append-only per-user calculation ledger. Per-user
// ordering comes from the (user_id, timestamp) key, not from any in-process
// coordination.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Append writes one calculation, assigning the timestamp at write time.
func (s *HistoryService) Append(ctx context.Context, userID string, op1, op2, result decimal.Decimal, operation, roleUsed string) (*models.HistoryEntry, error) {
	entry := models.HistoryEntry{
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Operand1:  op1,
		Operand2:  op2,
		Operation: operation,
		Result:    result,
		RoleUsed:  roleUsed,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Recent returns at most limit entries for one user, newest first.
func (s *HistoryService) Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// All returns every entry across users, newest first.
func (s *HistoryService) All(ctx context.Context) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&entries).Error
	return entries, err
}

// Delete removes one entry by its composite key.
func (s *HistoryService) Delete(ctx context.Context, userID, timestamp string) error {
	return s.db.WithContext(ctx).
		Delete(&models.HistoryEntry{}, "user_id = ? AND timestamp = ?", userID, timestamp).Error
}
