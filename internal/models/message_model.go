package models

import (
	"time"

	"gorm.io/gorm"
)

// Message type tags assigned by classification.
const (
	MessageTypeText     = "text"
	MessageTypePhoto    = "photo"
	MessageTypeVideo    = "video"
	MessageTypeDocument = "document"
	MessageTypeAudio    = "audio"
	MessageTypeVoice    = "voice"
	MessageTypeOther    = "other"
)

// Message is a single group message. Immutable once created except for the
// edit timestamp and the soft-delete flag.
type Message struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TelegramID int64 `gorm:"not null;index" json:"telegram_id"`
	GroupID    uint  `gorm:"not null;index" json:"group_id"`
	// UserID is nullable: sender resolution can fail (e.g. anonymous admins).
	UserID           *uint      `gorm:"index" json:"user_id"`
	SenderTelegramID int64      `json:"sender_telegram_id"`
	SenderUsername   string     `json:"sender_username"`
	Text             string     `json:"text"`
	MessageType      string     `gorm:"default:text;index" json:"message_type"`
	SentAt           time.Time  `gorm:"index" json:"sent_at"`
	EditedAt         *time.Time `json:"edited_at"`

	Group       *Group       `gorm:"foreignKey:GroupID" json:"-"`
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
