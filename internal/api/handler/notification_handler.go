package handler

import (
	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListMine 当前用户的通知（分页）
// GET /api/v1/notifications?unread=true&page=1&page_size=20
func (h *NotificationHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badParam(c, moduleNotification, err)
		return
	}

	list, total, err := h.notificationSvc.ListMine(c.Request.Context(), userID, req.Unread, req.GetOffset(), req.GetPageSize())
	if err != nil {
		handleServiceError(c, moduleNotification, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// MarkRead 标记单条已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleServiceError(c, moduleNotification, err)
		return
	}

	response.OK(c, nil)
}

// MarkAllRead 全部标记已读
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, moduleNotification, err)
		return
	}

	response.OK(c, gin.H{"updated": n})
}
