package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
)

// StatsHandler serves the dashboard overview and the analytics event log.
type StatsHandler struct {
	stats     *services.StatsService
	analytics *repositories.AnalyticsRepository
	logger    *zap.Logger
}

func NewStatsHandler(stats *services.StatsService, analytics *repositories.AnalyticsRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, analytics: analytics, logger: logger}
}

// Overview returns the aggregate dashboard counters. ?days bounds the
// per-day message series (default 30).
func (h *StatsHandler) Overview(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	overview, err := h.stats.Overview(days)
	if err != nil {
		h.logger.Error("failed to build stats overview", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to build stats overview",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    overview,
	})
}

// Events returns a page of analytics events, optionally filtered by group
// and event type.
func (h *StatsHandler) Events(c *gin.Context) {
	limit, offset := pagination(c, 50)

	events, total, err := h.analytics.List(uintQuery(c, "group_id"), c.Query("type"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list analytics events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list analytics events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"events": events,
			"total":  total,
		},
	})
}
