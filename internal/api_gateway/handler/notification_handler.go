package handler

import (
	"log/slog"
	"net/http"

	"github.com/flash-wallet-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

func NewNotificationHandler(logger *slog.Logger, notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

// List returns the caller's inbox (?unread=true for unread only) with the unread count
func (h *NotificationHandler) List(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	limit, offset := q.Normalize()
	unreadOnly := c.Query("unread") == "true"

	items, unread, err := h.notificationService.List(c.Request.Context(), id, unreadOnly, limit, offset)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, items, MetaInfo{Limit: limit, Offset: offset, Unread: &unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), owner, id); err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), owner)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), owner, id); err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}
