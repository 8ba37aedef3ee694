package routers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chhinhsovath/plp-telegram-manager/config"
	"github.com/chhinhsovath/plp-telegram-manager/internal/handlers"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
	"github.com/chhinhsovath/plp-telegram-manager/internal/storage"
	logger "github.com/chhinhsovath/plp-telegram-manager/middleware/log"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestRouter wires the full route table over sqlite with no bot client
// and no redis, the degraded-but-serving configuration.
func newTestRouter(t *testing.T, apiToken string) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	zapLogger := zap.NewNop()
	log := &logger.Logger{Logger: zapLogger}

	groups := repositories.NewGroupRepository(db)
	memberships := repositories.NewMembershipRepository(db)
	messages := repositories.NewMessageRepository(db)
	attachments := repositories.NewAttachmentRepository(db)
	analytics := repositories.NewAnalyticsRepository(db)
	users := repositories.NewUserRepository(db)

	sync := services.NewSyncService(groups, nil, zapLogger)
	stats := services.NewStatsService(groups, users, messages, attachments, analytics)

	cfg := &config.Config{}
	cfg.Admin.APIToken = apiToken
	cfg.RateLimit.QPS = 100
	cfg.RateLimit.Window = 1

	r := gin.New()
	SetupRoutes(r, cfg, log,
		handlers.NewWebhookHandler(nil, nil, "", nil, zapLogger),
		handlers.NewGroupHandler(groups, memberships, sync, zapLogger),
		handlers.NewMessageHandler(messages, zapLogger),
		handlers.NewMediaHandler(attachments, nil, zapLogger),
		handlers.NewStatsHandler(stats, analytics, zapLogger),
		nil,
	)
	return r
}

func get(r *gin.Engine, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, "tok")

	w := get(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, "tok")

	for _, target := range []string{
		"/api/v1/groups",
		"/api/v1/messages",
		"/api/v1/media",
		"/api/v1/stats/overview",
		"/api/v1/analytics/events",
	} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, target, "").Code)
			assert.Equal(t, http.StatusOK, get(r, target, "tok").Code)
		})
	}
}

func TestWebhookBypassesAdminAuth(t *testing.T) {
	r := newTestRouter(t, "tok")

	// No token on the webhook path; with no bot configured it answers 503,
	// not 401.
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSyncWithoutBot(t *testing.T) {
	r := newTestRouter(t, "tok")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/sync", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
