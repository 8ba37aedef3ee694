package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

// secretTokenHeader is the header Telegram echoes the configured webhook
// secret back in.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// dedupTTL bounds how long processed update IDs are remembered.
const dedupTTL = 24 * time.Hour

// WebhookHandler is the inbound edge of the ingestion pipeline.
//
// Response contract: 401 on secret mismatch, 503 when no bot is configured,
// and 200 {ok:true} for everything else, processing failures included, so
// the platform never retry-storms us.
type WebhookHandler struct {
	ingest *services.IngestService
	api    telegram.API
	secret string
	dedup  *redis.Client
	logger *zap.Logger
}

// NewWebhookHandler wires the webhook endpoint. api and ingest are nil when
// no bot token is configured; dedup is nil when redis is unavailable.
func NewWebhookHandler(
	ingest *services.IngestService,
	api telegram.API,
	secret string,
	dedup *redis.Client,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		ingest: ingest,
		api:    api,
		secret: secret,
		dedup:  dedup,
		logger: logger,
	}
}

// Receive handles POST callbacks from the Telegram platform.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.secret != "" && c.GetHeader(secretTokenHeader) != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"details": "webhook secret mismatch",
		})
		return
	}

	if h.api == nil || h.ingest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "bot not configured",
			"details": "no telegram bot token is set",
		})
		return
	}

	var update telego.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		// Undecodable bodies are acked like any other processing failure.
		h.logger.Warn("failed to decode webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if h.alreadyProcessed(c.Request.Context(), update.UpdateID) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.ingest.ProcessUpdate(&update)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Status handles GET probes, reporting the bot identity when configured.
func (h *WebhookHandler) Status(c *gin.Context) {
	if h.api == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "bot not configured",
			"details": "no telegram bot token is set",
		})
		return
	}

	me, err := h.api.GetMe()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "failed to reach telegram",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"bot": gin.H{
			"id":       me.ID,
			"username": me.Username,
			"name":     me.FirstName,
		},
	})
}

// alreadyProcessed remembers update IDs in redis so platform redeliveries
// are dropped. Fail-open: with no redis, or on redis errors, the update is
// processed (handlers are idempotent upserts anyway).
func (h *WebhookHandler) alreadyProcessed(ctx context.Context, updateID int) bool {
	if h.dedup == nil || updateID == 0 {
		return false
	}

	key := fmt.Sprintf("webhook:update:%d", updateID)
	set, err := h.dedup.SetNX(ctx, key, 1, dedupTTL).Result()
	if err != nil {
		h.logger.Warn("webhook dedup check failed", zap.Error(err))
		return false
	}
	return !set
}
