package models

import (
	"time"
)

// Group is a Telegram group or supergroup the bot has seen traffic from.
type Group struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TelegramID  int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Title       string `gorm:"not null" json:"title"`
	Username    string `json:"username"`
	MemberCount int    `gorm:"default:0" json:"member_count"`
	// IsActive is true while the bot is a recognized member of the chat.
	// Groups are deactivated on bot removal, never deleted implicitly.
	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
	BotAddedAt *time.Time `json:"bot_added_at"`

	Members  []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message         `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Events   []AnalyticsEvent  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}
