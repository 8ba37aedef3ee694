package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chhinhsovath/plp-telegram-manager/config"
	"github.com/chhinhsovath/plp-telegram-manager/internal/handlers"
	logger "github.com/chhinhsovath/plp-telegram-manager/middleware/log"
	"github.com/chhinhsovath/plp-telegram-manager/pkg/middlewares"
	"github.com/chhinhsovath/plp-telegram-manager/utils/ratelimit"
)

// SetupRoutes wires every HTTP route: the Telegram webhook endpoints and
// the authenticated admin API.
func SetupRoutes(r *gin.Engine, cfg *config.Config, log *logger.Logger,
	webhookHandler *handlers.WebhookHandler,
	groupHandler *handlers.GroupHandler,
	messageHandler *handlers.MessageHandler,
	mediaHandler *handlers.MediaHandler,
	statsHandler *handlers.StatsHandler,
	limiter ratelimit.Limiter,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(logger.TraceMiddleware())
	r.Use(logger.RequestLogMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Telegram calls this endpoint directly; it authenticates with the
	// webhook secret token, not the admin bearer token, and must never
	// be rate limited.
	r.POST("/webhook/telegram", webhookHandler.Receive)
	r.GET("/webhook/telegram", webhookHandler.Status)

	RegisterAdminRoutes(r, cfg, limiter, groupHandler, messageHandler, mediaHandler, statsHandler)
}

// RegisterAdminRoutes mounts the dashboard API under /api/v1 behind the
// bearer-token and rate-limit middlewares.
func RegisterAdminRoutes(r *gin.Engine, cfg *config.Config, limiter ratelimit.Limiter,
	groupHandler *handlers.GroupHandler,
	messageHandler *handlers.MessageHandler,
	mediaHandler *handlers.MediaHandler,
	statsHandler *handlers.StatsHandler,
) {
	api := r.Group("/api/v1")
	api.Use(middlewares.APITokenMiddleware(cfg.Admin.APIToken))
	api.Use(middlewares.RateLimitMiddleware(limiter, cfg.RateLimit.QPS, time.Duration(cfg.RateLimit.Window)*time.Second))
	{
		api.GET("/groups", groupHandler.List)
		api.GET("/groups/:id", groupHandler.Get)
		api.POST("/groups/sync", groupHandler.Sync)
		api.POST("/groups/cleanup", groupHandler.Cleanup)

		api.GET("/messages", messageHandler.List)

		api.GET("/media", mediaHandler.List)
		api.GET("/media/:id/file", mediaHandler.File)

		api.GET("/stats/overview", statsHandler.Overview)
		api.GET("/analytics/events", statsHandler.Events)
	}
}
