package telegram

import (
	"fmt"

	"github.com/mymmrac/telego"
)

// API is the slice of the Telegram Bot API the ingestion pipeline and the
// admin endpoints actually call. Handlers take it by injection so tests can
// substitute fakes instead of a live bot.
type API interface {
	GetMe() (*telego.User, error)
	GetChatMemberCount(params *telego.GetChatMemberCountParams) (*int, error)
	GetFile(params *telego.GetFileParams) (*telego.File, error)
	FileDownloadURL(filepath string) string
}

// NewClient creates the telego bot client for the given token.
func NewClient(token string) (*telego.Bot, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return bot, nil
}

// MemberCount fetches the live member count of a chat. Best-effort: callers
// fall back to 0 when it errors.
func MemberCount(api API, chatID int64) (int, error) {
	count, err := api.GetChatMemberCount(&telego.GetChatMemberCountParams{
		ChatID: telego.ChatID{ID: chatID},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch member count for chat %d: %w", chatID, err)
	}
	if count == nil {
		return 0, nil
	}
	return *count, nil
}

// FileURL resolves a fresh temporary download URL for a file ID through the
// Bot API.
func FileURL(api API, fileID string) (string, error) {
	file, err := api.GetFile(&telego.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}
	return api.FileDownloadURL(file.FilePath), nil
}
