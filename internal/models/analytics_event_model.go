package models

import (
	"time"
)

// Analytics event types appended by the ingestion pipeline.
const (
	EventMessageReceived = "message_received"
	EventMessageEdited   = "message_edited"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventBotAdded        = "bot_added"
	EventBotRemoved      = "bot_removed"
)

// AnalyticsEvent is an append-only record used by the dashboard for
// aggregation queries. Payload holds a free-form JSON document.
type AnalyticsEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	GroupID   uint   `gorm:"not null;index" json:"group_id"`
	EventType string `gorm:"not null;index" json:"event_type"`
	Payload   string `json:"payload"`

	Group *Group `gorm:"foreignKey:GroupID" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
