package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTaskBoard 导出项目看板
// GET /api/v1/export/projects/:id/board
func (h *ExportHandler) ExportTaskBoard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTaskBoard(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeXLSX, int64(buf.Len()), buf)
}

// ExportDefenseCalendar 导出答辩日历
// GET /api/v1/export/defenses.ics
func (h *ExportHandler) ExportDefenseCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportDefenseCalendar(c.Request.Context(), actor)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeICS, int64(buf.Len()), buf)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, errCode(moduleExport, 201), "生成导出文件失败")
		return
	}
	handleServiceError(c, moduleExport, err)
}
