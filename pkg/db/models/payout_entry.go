package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutEntry records an immutable money movement toward a submitter.
// Entries are append only; corrections get a new entry, never an edit.
type PayoutEntry struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    int64           `gorm:"column:user_id;not null;index"`
	Handle    string          `gorm:"column:handle;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CodeCount int             `gorm:"column:code_count;not null"`
	Admin     string          `gorm:"column:admin;not null"`
	Method    string          `gorm:"column:method"`
	Address   string          `gorm:"column:address"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
