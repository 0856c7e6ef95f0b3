package models

import (
	"github.com/shopspring/decimal"
)

// HistoryEntry is one appended calculation. The composite key (UserID,
// Timestamp) orders the ledger per user; Timestamp is RFC 3339 with
// nanoseconds in UTC so per-user writes never collide without any
// application-level coordination.
type HistoryEntry struct {
	UserID    string          `gorm:"primaryKey;size:64" json:"userId"`
	Timestamp string          `gorm:"primaryKey;size:64" json:"timestamp"`
	Operand1  decimal.Decimal `gorm:"type:numeric;not null" json:"operand1"`
	Operand2  decimal.Decimal `gorm:"type:numeric;not null" json:"operand2"`
	Operation string          `gorm:"size:20;not null" json:"operation"`
	Result    decimal.Decimal `gorm:"type:numeric;not null" json:"result"`
	RoleUsed  string          `gorm:"size:50" json:"roleUsed"`
}
