package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/pkg/enums"
)

// CodeRecord is one submitted code. Records belong to a submitter and are
// grouped into batches by BatchID; a batch never mixes code types.
type CodeRecord struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    int64            `gorm:"column:user_id;not null;index:idx_code_records_user_batch,priority:1"`
	Handle    string           `gorm:"column:handle;not null;index"`
	Code      string           `gorm:"column:code;not null;index"`
	CodeType  string           `gorm:"column:code_type;not null"`
	BatchID   int64            `gorm:"column:batch_id;not null;index:idx_code_records_user_batch,priority:2"`
	Status    enums.CodeStatus `gorm:"column:status;not null;default:Pending"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Note      *string          `gorm:"column:note"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Priced reports whether a price has been assigned to the record.
func (c CodeRecord) Priced() bool { return c.Price != nil }
