package services

import (
	"time"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
)

// StatsService aggregates the counters behind the dashboard overview page.
type StatsService struct {
	groups      *repositories.GroupRepository
	users       *repositories.UserRepository
	messages    *repositories.MessageRepository
	attachments *repositories.AttachmentRepository
	analytics   *repositories.AnalyticsRepository
}

func NewStatsService(
	groups *repositories.GroupRepository,
	users *repositories.UserRepository,
	messages *repositories.MessageRepository,
	attachments *repositories.AttachmentRepository,
	analytics *repositories.AnalyticsRepository,
) *StatsService {
	return &StatsService{
		groups:      groups,
		users:       users,
		messages:    messages,
		attachments: attachments,
		analytics:   analytics,
	}
}

// Overview is the dashboard summary payload.
type Overview struct {
	Groups         int64                     `json:"groups"`
	ActiveGroups   int64                     `json:"active_groups"`
	Users          int64                     `json:"users"`
	Messages       int64                     `json:"messages"`
	Attachments    int64                     `json:"attachments"`
	MessagesByType []repositories.TypeCount  `json:"messages_by_type"`
	MessagesPerDay []repositories.DayCount   `json:"messages_per_day"`
	EventsByType   []repositories.EventCount `json:"events_by_type"`
}

// Overview gathers the dashboard counters. days bounds the per-day series.
func (s *StatsService) Overview(days int) (*Overview, error) {
	if days <= 0 {
		days = 30
	}

	overview := &Overview{}
	var err error

	if overview.Groups, err = s.groups.Count(); err != nil {
		return nil, err
	}
	if overview.ActiveGroups, err = s.groups.CountActive(); err != nil {
		return nil, err
	}
	if overview.Users, err = s.users.Count(); err != nil {
		return nil, err
	}
	if overview.Messages, err = s.messages.Count(); err != nil {
		return nil, err
	}
	if overview.Attachments, err = s.attachments.Count(); err != nil {
		return nil, err
	}
	if overview.MessagesByType, err = s.messages.CountByType(); err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -days)
	if overview.MessagesPerDay, err = s.messages.CountPerDay(since); err != nil {
		return nil, err
	}
	if overview.EventsByType, err = s.analytics.CountByType(); err != nil {
		return nil, err
	}
	return overview, nil
}
