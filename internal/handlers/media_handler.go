package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

// MediaHandler serves the dashboard media listing and the file retrieval
// redirect.
type MediaHandler struct {
	attachments *repositories.AttachmentRepository
	api         telegram.API
	logger      *zap.Logger
}

func NewMediaHandler(attachments *repositories.AttachmentRepository, api telegram.API, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{attachments: attachments, api: api, logger: logger}
}

// List returns a filtered page of attachments. Filters: group_id, type.
func (h *MediaHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 20)

	attachments, total, err := h.attachments.List(repositories.AttachmentFilter{
		GroupID:  uintQuery(c, "group_id"),
		FileType: c.Query("type"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.logger.Error("failed to list attachments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list attachments",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"attachments": attachments,
			"total":       total,
		},
	})
}

// File redirects to the attachment content: the durable storage URL when
// relocation succeeded, otherwise a fresh temporary Bot API URL.
func (h *MediaHandler) File(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid attachment id",
			"details": "id must be a positive integer",
		})
		return
	}

	attachment, err := h.attachments.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "attachment not found",
			"details": err.Error(),
		})
		return
	}

	if attachment.StorageURL != "" {
		c.Redirect(http.StatusFound, attachment.StorageURL)
		return
	}

	if h.api == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "bot not configured",
			"details": "cannot resolve file without a telegram client",
		})
		return
	}

	url, err := telegram.FileURL(h.api, attachment.FileID)
	if err != nil {
		h.logger.Warn("file url resolution failed",
			zap.Uint("attachment_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "failed to resolve file",
			"details": err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, url)
}
