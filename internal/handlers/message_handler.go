package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
)

// MessageHandler serves the dashboard message listing with its filters.
type MessageHandler struct {
	messages *repositories.MessageRepository
	logger   *zap.Logger
}

func NewMessageHandler(messages *repositories.MessageRepository, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// List returns a filtered page of messages. Filters: group_id, type, from,
// to (RFC 3339 or date-only), q (substring search).
func (h *MessageHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 20)

	filter := repositories.MessageFilter{
		GroupID:     uintQuery(c, "group_id"),
		MessageType: c.Query("type"),
		Search:      c.Query("q"),
		Limit:       limit,
		Offset:      offset,
	}

	if v := c.Query("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid from date",
				"details": err.Error(),
			})
			return
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid to date",
				"details": err.Error(),
			})
			return
		}
		filter.To = &t
	}

	messages, total, err := h.messages.List(filter)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list messages",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"messages": messages,
			"total":    total,
		},
	})
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
