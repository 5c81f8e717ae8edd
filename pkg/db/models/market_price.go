package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/pkg/enums"
)

// MarketPrice is a manual board override for one code type. Absent rows fall
// back to the board defaults.
type MarketPrice struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CodeType  string            `gorm:"column:code_type;not null;uniqueIndex"`
	Price     *decimal.Decimal  `gorm:"column:price;type:numeric(12,2)"`
	Demand    enums.DemandLevel `gorm:"column:demand;not null;default:medium"`
	UpdatedBy string            `gorm:"column:updated_by;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
