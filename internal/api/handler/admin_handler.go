package handler

import (
	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// AdminHandler 审计日志与系统设置 HTTP 处理器
type AdminHandler struct {
	activitySvc service.ActivityLogService
	settingSvc  service.SystemSettingService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(activitySvc service.ActivityLogService, settingSvc service.SystemSettingService) *AdminHandler {
	return &AdminHandler{activitySvc: activitySvc, settingSvc: settingSvc}
}

// ListActivityLogs 审计日志（管理员）
// GET /api/v1/activity-logs?entity_type=task&entity_id=xxx
func (h *AdminHandler) ListActivityLogs(c *gin.Context) {
	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badParam(c, moduleActivity, err)
		return
	}

	list, total, err := h.activitySvc.List(c.Request.Context(), req.EntityType, req.EntityID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		handleServiceError(c, moduleActivity, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListSettings 系统设置列表
// GET /api/v1/settings
func (h *AdminHandler) ListSettings(c *gin.Context) {
	list, err := h.settingSvc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, moduleSetting, err)
		return
	}

	response.OK(c, list)
}

// GetSetting 单项设置
// GET /api/v1/settings/:key
func (h *AdminHandler) GetSetting(c *gin.Context) {
	s, err := h.settingSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		handleServiceError(c, moduleSetting, err)
		return
	}

	response.OK(c, s)
}

// UpdateSetting 修改设置值（管理员）
// PUT /api/v1/settings/:key
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleSetting, err)
		return
	}

	s, err := h.settingSvc.Update(requestContext(c), c.Param("key"), req.Value, actor)
	if err != nil {
		handleServiceError(c, moduleSetting, err)
		return
	}

	response.OK(c, s)
}
