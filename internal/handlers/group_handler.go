package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/services"
)

// GroupHandler serves the dashboard group views and the administrative
// sync/cleanup actions.
type GroupHandler struct {
	groups      *repositories.GroupRepository
	memberships *repositories.MembershipRepository
	sync        *services.SyncService
	logger      *zap.Logger
}

func NewGroupHandler(
	groups *repositories.GroupRepository,
	memberships *repositories.MembershipRepository,
	sync *services.SyncService,
	logger *zap.Logger,
) *GroupHandler {
	return &GroupHandler{
		groups:      groups,
		memberships: memberships,
		sync:        sync,
		logger:      logger,
	}
}

// List returns a page of groups. ?active=true filters to active groups.
func (h *GroupHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 20)
	activeOnly := c.Query("active") == "true"

	groups, total, err := h.groups.List(activeOnly, limit, offset)
	if err != nil {
		h.logger.Error("failed to list groups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list groups",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"groups": groups,
			"total":  total,
		},
	})
}

// Get returns one group with a page of its memberships.
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid group id",
			"details": "id must be a positive integer",
		})
		return
	}

	group, err := h.groups.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "group not found",
			"details": err.Error(),
		})
		return
	}

	limit, offset := pagination(c, 50)
	members, memberTotal, err := h.memberships.ListByGroup(id, limit, offset)
	if err != nil {
		h.logger.Error("failed to list group members", zap.Uint("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list group members",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"group":        group,
			"members":      members,
			"member_total": memberTotal,
		},
	})
}

// Sync re-fetches the live state of every known group.
func (h *GroupHandler) Sync(c *gin.Context) {
	result, err := h.sync.SyncGroups()
	if err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrBotNotConfigured {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("group sync failed", zap.Error(err))
		c.JSON(status, gin.H{
			"error":   "group sync failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    result,
	})
}

// Cleanup hard-deletes all inactive groups and their dependent rows.
func (h *GroupHandler) Cleanup(c *gin.Context) {
	deleted, err := h.sync.CleanupInactive()
	if err != nil {
		h.logger.Error("cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "cleanup failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"deleted_groups": deleted,
		},
	})
}
