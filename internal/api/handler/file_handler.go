package handler

import (
	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// FileHandler 附件 HTTP 处理器
type FileHandler struct {
	fileSvc service.FileService
}

// NewFileHandler 创建 FileHandler
func NewFileHandler(fileSvc service.FileService) *FileHandler {
	return &FileHandler{fileSvc: fileSvc}
}

// Upload 上传附件
// POST /api/v1/files （multipart：attachable_type, attachable_id, file）
func (h *FileHandler) Upload(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		badParam(c, moduleFile, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, errCode(moduleFile, suffixBadParam), "请选择要上传的文件")
		return
	}
	content, err := fh.Open()
	if err != nil {
		response.BadRequest(c, errCode(moduleFile, suffixBadParam), "读取上传文件失败")
		return
	}
	defer content.Close()

	f, err := h.fileSvc.Upload(requestContext(c), service.UploadInput{
		AttachableType: req.AttachableType,
		AttachableID:   req.AttachableID,
		Filename:       fh.Filename,
		MimeType:       fh.Header.Get("Content-Type"),
		Content:        content,
	}, actor)
	if err != nil {
		handleServiceError(c, moduleFile, err)
		return
	}

	response.Created(c, f)
}

// List 某实体下的附件列表
// GET /api/v1/files?attachable_type=task&attachable_id=xxx
func (h *FileHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UploadFileRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badParam(c, moduleFile, err)
		return
	}

	list, err := h.fileSvc.List(c.Request.Context(), req.AttachableType, req.AttachableID, actor)
	if err != nil {
		handleServiceError(c, moduleFile, err)
		return
	}

	response.OK(c, list)
}

// Download 下载附件
// GET /api/v1/files/:id/download
func (h *FileHandler) Download(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	f, rc, err := h.fileSvc.Open(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleFile, err)
		return
	}
	defer rc.Close()

	response.Attachment(c, f.OriginalFilename, f.MimeType, f.FileSize, rc)
}
