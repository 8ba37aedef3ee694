package services

import (
	"errors"

	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

// ErrBotNotConfigured is returned by operations that need a live Telegram
// client when none was configured.
var ErrBotNotConfigured = errors.New("telegram client not configured")

// SyncService reconciles stored groups against the live platform state and
// performs the destructive cleanup of inactive groups.
type SyncService struct {
	groups *repositories.GroupRepository
	api    telegram.API
	logger *zap.Logger
}

func NewSyncService(groups *repositories.GroupRepository, api telegram.API, logger *zap.Logger) *SyncService {
	return &SyncService{groups: groups, api: api, logger: logger}
}

// SyncResult summarizes one full group sync.
type SyncResult struct {
	Total       int `json:"total"`
	Synced      int `json:"synced"`
	Deactivated int `json:"deactivated"`
	Failed      int `json:"failed"`
}

// SyncGroups re-fetches the live member count for every known group. A
// failed fetch means the bot lost access to the chat, so the group is
// marked inactive. Deletion only happens through CleanupInactive.
func (s *SyncService) SyncGroups() (*SyncResult, error) {
	if s.api == nil {
		return nil, ErrBotNotConfigured
	}

	groups, err := s.groups.ListAll()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Total: len(groups)}
	for i := range groups {
		group := &groups[i]

		count, err := telegram.MemberCount(s.api, group.TelegramID)
		if err != nil {
			result.Failed++
			s.logger.Warn("group inaccessible during sync",
				zap.Int64("chat_id", group.TelegramID),
				zap.Error(err),
			)
			if group.IsActive {
				if err := s.groups.SetActive(group.ID, false); err != nil {
					s.logger.Error("failed to deactivate group",
						zap.Uint("group_id", group.ID),
						zap.Error(err),
					)
					continue
				}
				result.Deactivated++
			}
			continue
		}

		if err := s.groups.UpdateMemberCount(group.ID, count); err != nil {
			result.Failed++
			s.logger.Error("failed to store member count",
				zap.Uint("group_id", group.ID),
				zap.Error(err),
			)
			continue
		}
		result.Synced++
	}
	return result, nil
}

// CleanupInactive hard-deletes all inactive groups and their dependent rows.
// Explicitly administrative and destructive.
func (s *SyncService) CleanupInactive() (int64, error) {
	return s.groups.DeleteInactive()
}
