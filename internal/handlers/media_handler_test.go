package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

func mediaRouter(db *gorm.DB, api *fakeAPI) *gin.Engine {
	var tg telegram.API
	if api != nil {
		tg = api
	}
	h := NewMediaHandler(repositories.NewAttachmentRepository(db), tg, zap.NewNop())
	r := gin.New()
	r.GET("/api/v1/media", h.List)
	r.GET("/api/v1/media/:id/file", h.File)
	return r
}

func TestMediaList(t *testing.T) {
	db := testDB(t)
	group := seedGroup(t, db, -100, true)
	user := seedUser(t, db, 7)
	msg := seedMessage(t, db, group, user, 1, models.MessageTypePhoto, "", time.Now())

	require.NoError(t, db.Create(&models.Attachment{MessageID: msg.ID, FileID: "p1", FileType: models.MessageTypePhoto}).Error)
	require.NoError(t, db.Create(&models.Attachment{MessageID: msg.ID, FileID: "d1", FileType: models.MessageTypeDocument}).Error)

	r := mediaRouter(db, nil)

	t.Run("all", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/media", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":2`)
	})

	t.Run("by type", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/media?type=document", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
		assert.Contains(t, w.Body.String(), "d1")
	})

	t.Run("by group", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/media?group_id=999", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":0`)
	})
}

func TestMediaFile(t *testing.T) {
	db := testDB(t)
	group := seedGroup(t, db, -100, true)
	user := seedUser(t, db, 7)
	msg := seedMessage(t, db, group, user, 1, models.MessageTypePhoto, "", time.Now())

	stored := &models.Attachment{MessageID: msg.ID, FileID: "p1", FileType: models.MessageTypePhoto, StorageURL: "http://files.local/a.jpg"}
	require.NoError(t, db.Create(stored).Error)
	pending := &models.Attachment{MessageID: msg.ID, FileID: "p2", FileType: models.MessageTypePhoto}
	require.NoError(t, db.Create(pending).Error)

	api := &fakeAPI{
		baseURL:   "https://api.telegram.org/file/bot1",
		filePaths: map[string]string{"p2": "photos/p2.jpg"},
	}

	t.Run("redirects to durable storage", func(t *testing.T) {
		w := doRequest(mediaRouter(db, api), http.MethodGet, "/api/v1/media/1/file", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://files.local/a.jpg", w.Header().Get("Location"))
	})

	t.Run("falls back to bot api url", func(t *testing.T) {
		w := doRequest(mediaRouter(db, api), http.MethodGet, "/api/v1/media/2/file", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://api.telegram.org/file/bot1/photos/p2.jpg", w.Header().Get("Location"))
	})

	t.Run("no client and no stored copy", func(t *testing.T) {
		w := doRequest(mediaRouter(db, nil), http.MethodGet, "/api/v1/media/2/file", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("unresolvable file id", func(t *testing.T) {
		broken := &models.Attachment{MessageID: msg.ID, FileID: "gone", FileType: models.MessageTypePhoto}
		require.NoError(t, db.Create(broken).Error)
		w := doRequest(mediaRouter(db, api), http.MethodGet, "/api/v1/media/3/file", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("unknown attachment", func(t *testing.T) {
		w := doRequest(mediaRouter(db, api), http.MethodGet, "/api/v1/media/999/file", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStatsEndpoints(t *testing.T) {
	db := testDB(t)
	group := seedGroup(t, db, -100, true)
	user := seedUser(t, db, 7)
	seedMessage(t, db, group, user, 1, models.MessageTypeText, "hi", time.Now())
	require.NoError(t, db.Create(&models.AnalyticsEvent{GroupID: group.ID, EventType: models.EventMessageReceived, Payload: "{}"}).Error)

	logger := zap.NewNop()
	analytics := repositories.NewAnalyticsRepository(db)
	stats := services.NewStatsService(
		repositories.NewGroupRepository(db),
		repositories.NewUserRepository(db),
		repositories.NewMessageRepository(db),
		repositories.NewAttachmentRepository(db),
		analytics,
	)
	h := NewStatsHandler(stats, analytics, logger)

	r := gin.New()
	r.GET("/api/v1/stats/overview", h.Overview)
	r.GET("/api/v1/analytics/events", h.Events)

	t.Run("overview", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/stats/overview?days=7", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"groups":1`)
		assert.Contains(t, w.Body.String(), `"messages":1`)
		assert.Contains(t, w.Body.String(), `"messages_by_type"`)
	})

	t.Run("events", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/analytics/events?type=message_received", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
	})
}
