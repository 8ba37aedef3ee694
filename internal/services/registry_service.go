package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

// RegistryService maps external Telegram identities to internal rows.
// Both ensure operations are idempotent upserts keyed on the telegram ID:
// concurrent webhook deliveries may race on first contact, so a failed
// create falls back to re-fetching the row the other request won with.
type RegistryService struct {
	groups      *repositories.GroupRepository
	users       *repositories.UserRepository
	api         telegram.API
	localDomain string
	logger      *zap.Logger
}

func NewRegistryService(
	groups *repositories.GroupRepository,
	users *repositories.UserRepository,
	api telegram.API,
	localDomain string,
	logger *zap.Logger,
) *RegistryService {
	return &RegistryService{
		groups:      groups,
		users:       users,
		api:         api,
		localDomain: localDomain,
		logger:      logger,
	}
}

// EnsureGroup returns the group row for a chat, creating it on first sight.
// Existing rows are returned as-is: title and handle refresh only through
// the lifecycle and sync paths, not on every message.
func (s *RegistryService) EnsureGroup(chat telego.Chat) (*models.Group, error) {
	group, err := s.groups.GetByTelegramID(chat.ID)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up group %d: %w", chat.ID, err)
	}

	group = &models.Group{
		TelegramID:  chat.ID,
		Title:       chat.Title,
		Username:    chat.Username,
		MemberCount: s.FetchMemberCount(chat.ID),
		IsActive:    true,
	}
	if createErr := s.groups.Create(group); createErr != nil {
		// Lost the first-contact race: the unique index rejected the
		// duplicate, so the row must exist now.
		if existing, fetchErr := s.groups.GetByTelegramID(chat.ID); fetchErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create group %d: %w", chat.ID, createErr)
	}
	return group, nil
}

// EnsureUser returns the user row for a sender, creating it on first sight
// with a synthesized placeholder email.
func (s *RegistryService) EnsureUser(from *telego.User) (*models.User, error) {
	user, err := s.users.GetByTelegramID(from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user %d: %w", from.ID, err)
	}

	user = &models.User{
		TelegramID: from.ID,
		Name:       DisplayName(from),
		Username:   from.Username,
		Email:      s.PlaceholderEmail(from.ID),
	}
	if createErr := s.users.Create(user); createErr != nil {
		if existing, fetchErr := s.users.GetByTelegramID(from.ID); fetchErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user %d: %w", from.ID, createErr)
	}
	return user, nil
}

// FetchMemberCount asks the Bot API for the live member count. Best-effort:
// returns 0 when the client is missing or the call fails, because member
// count must never block group creation.
func (s *RegistryService) FetchMemberCount(chatID int64) int {
	if s.api == nil {
		return 0
	}
	count, err := telegram.MemberCount(s.api, chatID)
	if err != nil {
		s.logger.Warn("member count fetch failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return 0
	}
	return count
}

// PlaceholderEmail synthesizes the placeholder contact address for a user.
// Telegram exposes no email, and embedding the unique telegram ID keeps the
// address collision-free.
func (s *RegistryService) PlaceholderEmail(telegramID int64) string {
	return fmt.Sprintf("telegram_%d@%s", telegramID, s.localDomain)
}

// DisplayName assembles a display name from first and last name.
func DisplayName(u *telego.User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
