package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/storage"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	return db
}

func seedGroup(t *testing.T, db *gorm.DB, telegramID int64, active bool) *models.Group {
	t.Helper()
	group := &models.Group{
		TelegramID: telegramID,
		Title:      fmt.Sprintf("Group %d", telegramID),
		IsActive:   active,
	}
	require.NoError(t, db.Create(group).Error)
	return group
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *models.User {
	t.Helper()
	user := &models.User{
		TelegramID: telegramID,
		Name:       fmt.Sprintf("User %d", telegramID),
		Email:      fmt.Sprintf("telegram_%d@plp.local", telegramID),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedMessage(t *testing.T, db *gorm.DB, group *models.Group, user *models.User, telegramID int64, msgType, text string, sentAt time.Time) *models.Message {
	t.Helper()
	message := &models.Message{
		TelegramID:  telegramID,
		GroupID:     group.ID,
		MessageType: msgType,
		Text:        text,
		SentAt:      sentAt,
	}
	if user != nil {
		message.UserID = &user.ID
		message.SenderTelegramID = user.TelegramID
	}
	require.NoError(t, db.Create(message).Error)
	return message
}
