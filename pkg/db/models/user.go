package models

import (
	"time"
)

// User is a Telegram account the desk has seen. TelegramID is the stable
// identity; Handle can change between sessions and is refreshed on contact.
type User struct {
	TelegramID int64      `gorm:"column:telegram_id;primaryKey;autoIncrement:false"`
	ChatID     int64      `gorm:"column:chat_id;not null"`
	Handle     string     `gorm:"column:handle;not null;index"`
	FirstName  *string    `gorm:"column:first_name"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
