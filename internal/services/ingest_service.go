package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

// IngestService drives the update-ingestion pipeline: it dispatches a
// validated update to the per-kind handler, each of which resolves entities
// through the registry and persists the resulting rows.
//
// Error policy mirrors the webhook contract: ProcessUpdate swallows every
// error after logging it, so the caller can always acknowledge the upstream
// platform and avoid retry storms.
type IngestService struct {
	db          *gorm.DB
	registry    *RegistryService
	users       *repositories.UserRepository
	groups      *repositories.GroupRepository
	memberships *repositories.MembershipRepository
	messages    *repositories.MessageRepository
	attachments *AttachmentService
	analytics   *AnalyticsService
	api         telegram.API
	botID       int64
	logger      *zap.Logger
}

func NewIngestService(
	db *gorm.DB,
	registry *RegistryService,
	users *repositories.UserRepository,
	groups *repositories.GroupRepository,
	memberships *repositories.MembershipRepository,
	messages *repositories.MessageRepository,
	attachments *AttachmentService,
	analytics *AnalyticsService,
	api telegram.API,
	botID int64,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		db:          db,
		registry:    registry,
		users:       users,
		groups:      groups,
		memberships: memberships,
		messages:    messages,
		attachments: attachments,
		analytics:   analytics,
		api:         api,
		botID:       botID,
		logger:      logger,
	}
}

// ProcessUpdate dispatches one update. Never returns an error: processing
// failures are logged and swallowed, data loss on error is an accepted
// limitation of the ack-everything webhook contract.
func (s *IngestService) ProcessUpdate(update *telego.Update) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while processing update",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
			)
		}
	}()

	if problems := telegram.Validate(update); len(problems) > 0 {
		// Visibility only; handlers re-check the fields they need.
		s.logger.Warn("update failed schema validation",
			zap.Int("update_id", update.UpdateID),
			zap.Strings("problems", problems),
		)
	}

	kind := telegram.Classify(update)

	var err error
	switch kind {
	case telegram.KindMessage:
		err = s.handleMessage(update.Message)
	case telegram.KindEditedMessage:
		err = s.handleEditedMessage(update.EditedMessage)
	case telegram.KindMemberJoined:
		err = s.handleMemberJoined(update.Message)
	case telegram.KindMemberLeft:
		err = s.handleMemberLeft(update.Message)
	case telegram.KindBotMembership:
		err = s.handleBotMembership(update.MyChatMember)
	case telegram.KindChannelPost, telegram.KindUnknown:
		// Channels and unrecognized update kinds are not ingested.
	}

	if err != nil {
		s.logger.Error("update processing failed",
			zap.Int("update_id", update.UpdateID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// handleMessage persists a group message, its attachment, and the implied
// membership, then records the analytics event.
func (s *IngestService) handleMessage(msg *telego.Message) error {
	if !telegram.IsGroupChat(msg.Chat) {
		return nil
	}

	group, err := s.registry.EnsureGroup(msg.Chat)
	if err != nil {
		return err
	}

	var (
		user           *models.User
		userID         *uint
		senderID       int64
		senderUsername string
	)
	if msg.From != nil {
		senderID = msg.From.ID
		senderUsername = msg.From.Username
		user, err = s.registry.EnsureUser(msg.From)
		if err != nil {
			// Messages keep a nullable sender reference; resolution failure
			// must not drop the message itself.
			s.logger.Warn("sender resolution failed",
				zap.Int64("sender_id", msg.From.ID),
				zap.Error(err),
			)
			user = nil
		} else {
			userID = &user.ID
		}
	}

	msgType, text, media := telegram.ClassifyMessage(msg)

	message := &models.Message{
		TelegramID:       int64(msg.MessageID),
		GroupID:          group.ID,
		UserID:           userID,
		SenderTelegramID: senderID,
		SenderUsername:   senderUsername,
		Text:             text,
		MessageType:      msgType,
		SentAt:           time.Unix(msg.Date, 0),
	}

	// Message and membership commit together; attachment relocation is an
	// external call and stays outside, backfilling its row afterwards.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.messages.WithTx(tx).Create(message); err != nil {
			return err
		}
		if user != nil {
			return upsertMembership(s.memberships.WithTx(tx), group.ID, user.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist message %d in group %d: %w", msg.MessageID, group.TelegramID, err)
	}

	if media != nil {
		if err := s.attachments.Extract(message.ID, media); err != nil {
			// Attachment failure never rolls back the message.
			s.logger.Warn("attachment extraction failed",
				zap.Uint("message_id", message.ID),
				zap.Error(err),
			)
		}
	}

	s.analytics.Record(group.ID, models.EventMessageReceived, map[string]any{
		"message_type":   msgType,
		"has_attachment": media != nil,
	})
	return nil
}

// handleEditedMessage applies an edit to an already-ingested message. An
// edit for a group or message we never saw is dropped silently.
func (s *IngestService) handleEditedMessage(msg *telego.Message) error {
	if !telegram.IsGroupChat(msg.Chat) {
		return nil
	}

	group, err := s.groups.GetByTelegramID(msg.Chat.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	message, err := s.messages.GetByTelegramID(group.ID, int64(msg.MessageID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	msgType, text, _ := telegram.ClassifyMessage(msg)
	editedAt := time.Now()
	if msg.EditDate != 0 {
		editedAt = time.Unix(msg.EditDate, 0)
	}

	message.Text = text
	message.MessageType = msgType
	message.EditedAt = &editedAt
	if err := s.messages.Update(message); err != nil {
		return fmt.Errorf("failed to apply edit to message %d: %w", message.ID, err)
	}

	s.analytics.Record(group.ID, models.EventMessageEdited, map[string]any{
		"message_type": msgType,
	})
	return nil
}

// handleMemberJoined upserts memberships for every new member in the event
// and refreshes the group's member count.
func (s *IngestService) handleMemberJoined(msg *telego.Message) error {
	if !telegram.IsGroupChat(msg.Chat) {
		return nil
	}

	group, err := s.registry.EnsureGroup(msg.Chat)
	if err != nil {
		return err
	}

	for i := range msg.NewChatMembers {
		member := &msg.NewChatMembers[i]
		if s.botID != 0 && member.ID == s.botID {
			// The bot's own joins arrive as my_chat_member updates.
			continue
		}

		user, err := s.registry.EnsureUser(member)
		if err != nil {
			s.logger.Warn("failed to ensure joining user",
				zap.Int64("user_id", member.ID),
				zap.Error(err),
			)
			continue
		}
		if err := upsertMembership(s.memberships, group.ID, user.ID); err != nil {
			s.logger.Warn("failed to upsert membership",
				zap.Uint("group_id", group.ID),
				zap.Uint("user_id", user.ID),
				zap.Error(err),
			)
			continue
		}

		s.analytics.Record(group.ID, models.EventMemberJoined, map[string]any{
			"user_telegram_id": member.ID,
		})
	}

	s.refreshMemberCount(group)
	return nil
}

// handleMemberLeft marks the departing member's row inactive. Unknown groups
// and unknown users are silent no-ops, not errors.
func (s *IngestService) handleMemberLeft(msg *telego.Message) error {
	if !telegram.IsGroupChat(msg.Chat) {
		return nil
	}

	left := msg.LeftChatMember
	if s.botID != 0 && left.ID == s.botID {
		return nil
	}

	group, err := s.groups.GetByTelegramID(msg.Chat.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	user, err := s.users.GetByTelegramID(left.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	membership, err := s.memberships.Get(group.ID, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	membership.IsActive = false
	membership.LeftAt = &now
	if err := s.memberships.Update(membership); err != nil {
		return fmt.Errorf("failed to deactivate membership: %w", err)
	}

	s.analytics.Record(group.ID, models.EventMemberLeft, map[string]any{
		"user_telegram_id": left.ID,
	})
	s.refreshMemberCount(group)
	return nil
}

// handleBotMembership runs the bot_added / bot_removed state machine on the
// bot's own my_chat_member transitions. Upserts converge regardless of event
// replay, so re-adding after removal is safe.
func (s *IngestService) handleBotMembership(mcm *telego.ChatMemberUpdated) error {
	if !telegram.IsGroupChat(mcm.Chat) {
		return nil
	}
	if mcm.NewChatMember == nil {
		return nil
	}

	member := mcm.NewChatMember.MemberUser()
	if s.botID != 0 && member.ID != s.botID {
		return nil
	}

	switch mcm.NewChatMember.MemberStatus() {
	case telego.MemberStatusMember:
		return s.botAdded(mcm)
	case telego.MemberStatusLeft, telego.MemberStatusBanned:
		return s.botRemoved(mcm)
	default:
		return nil
	}
}

func (s *IngestService) botAdded(mcm *telego.ChatMemberUpdated) error {
	addedAt := time.Unix(mcm.Date, 0)

	group, err := s.groups.GetByTelegramID(mcm.Chat.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		group = &models.Group{
			TelegramID:  mcm.Chat.ID,
			Title:       mcm.Chat.Title,
			Username:    mcm.Chat.Username,
			MemberCount: 0,
			IsActive:    true,
			BotAddedAt:  &addedAt,
		}
		if createErr := s.groups.Create(group); createErr != nil {
			group, err = s.groups.GetByTelegramID(mcm.Chat.ID)
			if err != nil {
				return fmt.Errorf("failed to create group %d: %w", mcm.Chat.ID, createErr)
			}
			// fall through to the update path below
		} else {
			s.analytics.Record(group.ID, models.EventBotAdded, map[string]any{
				"chat_title": mcm.Chat.Title,
			})
			return nil
		}
	} else if err != nil {
		return err
	}

	group.Title = mcm.Chat.Title
	group.Username = mcm.Chat.Username
	group.IsActive = true
	if group.BotAddedAt == nil {
		group.BotAddedAt = &addedAt
	}
	if err := s.groups.Update(group); err != nil {
		return fmt.Errorf("failed to reactivate group %d: %w", mcm.Chat.ID, err)
	}

	s.analytics.Record(group.ID, models.EventBotAdded, map[string]any{
		"chat_title": mcm.Chat.Title,
	})
	return nil
}

func (s *IngestService) botRemoved(mcm *telego.ChatMemberUpdated) error {
	group, err := s.groups.GetByTelegramID(mcm.Chat.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.groups.SetActive(group.ID, false); err != nil {
		return fmt.Errorf("failed to deactivate group %d: %w", mcm.Chat.ID, err)
	}

	s.analytics.Record(group.ID, models.EventBotRemoved, map[string]any{
		"status": mcm.NewChatMember.MemberStatus(),
	})
	return nil
}

// refreshMemberCount re-fetches the live member count after membership
// events. Best-effort.
func (s *IngestService) refreshMemberCount(group *models.Group) {
	if s.api == nil {
		return
	}
	count, err := telegram.MemberCount(s.api, group.TelegramID)
	if err != nil {
		s.logger.Warn("member count refresh failed",
			zap.Int64("chat_id", group.TelegramID),
			zap.Error(err),
		)
		return
	}
	if err := s.groups.UpdateMemberCount(group.ID, count); err != nil {
		s.logger.Warn("failed to store member count",
			zap.Uint("group_id", group.ID),
			zap.Error(err),
		)
	}
}

// upsertMembership makes (group, user) active, clearing any left-at
// timestamp. Message receipt implies continued presence, so this runs on
// both join events and ordinary messages. A single INSERT .. ON CONFLICT
// lets a lost first-contact race resolve to the winner's row without
// aborting the enclosing message transaction.
func upsertMembership(memberships *repositories.MembershipRepository, groupID, userID uint) error {
	return memberships.Upsert(&models.GroupMembership{
		GroupID:  groupID,
		UserID:   userID,
		IsActive: true,
		JoinedAt: time.Now(),
	})
}
