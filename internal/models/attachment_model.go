package models

import (
	"time"
)

// Attachment is the media payload of a message. Created once, then only the
// storage URL may be backfilled after the file is relocated to durable
// storage.
type Attachment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	MessageID uint   `gorm:"not null;index" json:"message_id"`
	FileID    string `gorm:"not null" json:"file_id"`
	FileType  string `gorm:"not null;index" json:"file_type"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  int    `json:"duration"`
	// FileSize is int64: Telegram documents and videos can exceed 2 GiB.
	FileSize     int64  `json:"file_size"`
	StorageURL   string `json:"storage_url"`
	ThumbnailURL string `json:"thumbnail_url"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}
