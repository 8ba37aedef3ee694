package models

import (
	"time"
)

// User is a Telegram user, created lazily the first time a message or
// membership event references an unseen telegram ID.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	// Email is a synthesized placeholder (telegram_<id>@<domain>) because
	// Telegram does not expose a contact address and the schema requires a
	// unique one. The telegram ID embedded in it guarantees no collisions.
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
