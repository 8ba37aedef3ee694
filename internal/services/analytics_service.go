package services

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
)

// AnalyticsService appends events for dashboard aggregation. Analytics is
// best-effort telemetry: failures are logged and never propagated.
type AnalyticsService struct {
	events *repositories.AnalyticsRepository
	logger *zap.Logger
}

func NewAnalyticsService(events *repositories.AnalyticsRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{events: events, logger: logger}
}

// Record appends one event. Fire-and-forget.
func (s *AnalyticsService) Record(groupID uint, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to encode analytics payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		data = []byte("{}")
	}

	event := &models.AnalyticsEvent{
		GroupID:   groupID,
		EventType: eventType,
		Payload:   string(data),
	}
	if err := s.events.Create(event); err != nil {
		s.logger.Warn("failed to record analytics event",
			zap.Uint("group_id", groupID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
