package repositories

import (
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// AnalyticsRepository wraps the append-only analytics event log.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Create(event *models.AnalyticsEvent) error {
	return r.db.Create(event).Error
}

// List returns a page of events, newest first, optionally filtered by group
// and event type.
func (r *AnalyticsRepository) List(groupID uint, eventType string, limit, offset int) ([]models.AnalyticsEvent, int64, error) {
	var events []models.AnalyticsEvent
	var total int64

	query := r.db.Model(&models.AnalyticsEvent{})
	if groupID != 0 {
		query = query.Where("group_id = ?", groupID)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// EventCount is a per-event-type aggregate.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

func (r *AnalyticsRepository) CountByType() ([]EventCount, error) {
	var counts []EventCount
	err := r.db.Model(&models.AnalyticsEvent{}).
		Select("event_type, count(*) as count").
		Group("event_type").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}
