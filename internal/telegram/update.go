package telegram

import (
	"fmt"

	"github.com/mymmrac/telego"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// UpdateKind tags an inbound update for dispatch. Kinds are derived once
// here instead of probing payload fields ad hoc in every handler.
type UpdateKind string

const (
	KindMessage       UpdateKind = "message"
	KindEditedMessage UpdateKind = "edited_message"
	KindChannelPost   UpdateKind = "channel_post"
	KindMemberJoined  UpdateKind = "member_joined"
	KindMemberLeft    UpdateKind = "member_left"
	KindBotMembership UpdateKind = "bot_membership"
	KindUnknown       UpdateKind = "unknown"
)

// Classify derives the dispatch kind of an update. Service messages about
// members joining or leaving arrive as regular messages with the relevant
// field set, so they are split out before plain message handling.
func Classify(u *telego.Update) UpdateKind {
	switch {
	case u.MyChatMember != nil:
		return KindBotMembership
	case u.Message != nil && len(u.Message.NewChatMembers) > 0:
		return KindMemberJoined
	case u.Message != nil && u.Message.LeftChatMember != nil:
		return KindMemberLeft
	case u.Message != nil:
		return KindMessage
	case u.EditedMessage != nil:
		return KindEditedMessage
	case u.ChannelPost != nil:
		return KindChannelPost
	default:
		return KindUnknown
	}
}

var chatTypes = map[string]bool{
	telego.ChatTypePrivate:    true,
	telego.ChatTypeGroup:      true,
	telego.ChatTypeSupergroup: true,
	telego.ChatTypeChannel:    true,
}

// Validate checks an update against the expected schema and returns a list
// of problems. Validation is for visibility only: problems are logged by the
// caller but never prevent dispatch, because the downstream handlers do
// their own tolerant field checks.
func Validate(u *telego.Update) []string {
	var problems []string

	if u.UpdateID == 0 {
		problems = append(problems, "missing update_id")
	}

	for field, msg := range map[string]*telego.Message{
		"message":        u.Message,
		"edited_message": u.EditedMessage,
		"channel_post":   u.ChannelPost,
	} {
		if msg == nil {
			continue
		}
		if msg.Date == 0 {
			problems = append(problems, fmt.Sprintf("%s: missing date", field))
		}
		problems = append(problems, validateChat(field, msg.Chat)...)
		if msg.From != nil && msg.From.ID == 0 {
			problems = append(problems, fmt.Sprintf("%s: sender has no id", field))
		}
	}

	if mcm := u.MyChatMember; mcm != nil {
		if mcm.Date == 0 {
			problems = append(problems, "my_chat_member: missing date")
		}
		problems = append(problems, validateChat("my_chat_member", mcm.Chat)...)
		if mcm.NewChatMember == nil {
			problems = append(problems, "my_chat_member: missing new_chat_member")
		}
	}

	return problems
}

func validateChat(field string, chat telego.Chat) []string {
	var problems []string
	if chat.ID == 0 {
		problems = append(problems, fmt.Sprintf("%s: missing chat id", field))
	}
	if !chatTypes[chat.Type] {
		problems = append(problems, fmt.Sprintf("%s: unexpected chat type %q", field, chat.Type))
	}
	return problems
}

// Media is the attachment payload found on a message, normalized across the
// per-kind Telegram shapes.
type Media struct {
	FileID          string
	FileType        string
	FileName        string
	MimeType        string
	Width           int
	Height          int
	Duration        int
	FileSize        int64
	ThumbnailFileID string
}

// ExtractMedia normalizes the media field of a message, if any. For photos
// the highest-resolution variant is the last element of the size array.
func ExtractMedia(msg *telego.Message) *Media {
	switch {
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		m := &Media{
			FileID:   largest.FileID,
			FileType: models.MessageTypePhoto,
			Width:    largest.Width,
			Height:   largest.Height,
			FileSize: int64(largest.FileSize),
		}
		if len(msg.Photo) > 1 {
			m.ThumbnailFileID = msg.Photo[0].FileID
		}
		return m
	case msg.Video != nil:
		m := &Media{
			FileID:   msg.Video.FileID,
			FileType: models.MessageTypeVideo,
			FileName: msg.Video.FileName,
			MimeType: msg.Video.MimeType,
			Width:    msg.Video.Width,
			Height:   msg.Video.Height,
			Duration: msg.Video.Duration,
			FileSize: int64(msg.Video.FileSize),
		}
		if msg.Video.Thumbnail != nil {
			m.ThumbnailFileID = msg.Video.Thumbnail.FileID
		}
		return m
	case msg.Document != nil:
		m := &Media{
			FileID:   msg.Document.FileID,
			FileType: models.MessageTypeDocument,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
			FileSize: int64(msg.Document.FileSize),
		}
		if msg.Document.Thumbnail != nil {
			m.ThumbnailFileID = msg.Document.Thumbnail.FileID
		}
		return m
	case msg.Audio != nil:
		return &Media{
			FileID:   msg.Audio.FileID,
			FileType: models.MessageTypeAudio,
			FileName: msg.Audio.FileName,
			MimeType: msg.Audio.MimeType,
			Duration: msg.Audio.Duration,
			FileSize: int64(msg.Audio.FileSize),
		}
	case msg.Voice != nil:
		return &Media{
			FileID:   msg.Voice.FileID,
			FileType: models.MessageTypeVoice,
			MimeType: msg.Voice.MimeType,
			Duration: msg.Voice.Duration,
			FileSize: int64(msg.Voice.FileSize),
		}
	default:
		return nil
	}
}

// ClassifyMessage assigns the message type tag and the stored text. Plain
// text wins over media; media messages store their caption as text; messages
// with neither fall back to "other" with empty text.
func ClassifyMessage(msg *telego.Message) (msgType, text string, media *Media) {
	media = ExtractMedia(msg)

	switch {
	case msg.Text != "":
		return models.MessageTypeText, msg.Text, media
	case media != nil:
		return media.FileType, msg.Caption, media
	default:
		return models.MessageTypeOther, "", nil
	}
}

// IsGroupChat reports whether a chat carries group traffic the system
// ingests. Private chats and channels are excluded.
func IsGroupChat(chat telego.Chat) bool {
	return chat.Type == telego.ChatTypeGroup || chat.Type == telego.ChatTypeSupergroup
}
