package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表（管理员、导师）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badParam(c, moduleUser, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.OK(c, user)
}

// CreateUser 管理员创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleUser, err)
		return
	}

	user, err := h.userSvc.Create(requestContext(c), &req, actor)
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.Created(c, user)
}

// UpdateUser 更新用户（管理员或本人，Service 层鉴权）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleUser, err)
		return
	}

	user, err := h.userSvc.Update(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.NoContent(c)
}

// ResetPassword 重置为随机临时密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.userSvc.ResetPassword(requestContext(c), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.OK(c, result)
}

// ImportStudents 通过 Excel 批量导入学生
// POST /api/v1/users/import （multipart 字段 file）
func (h *UserHandler) ImportStudents(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, errCode(moduleUser, suffixBadParam), "请上传 Excel 文件")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, errCode(moduleUser, suffixBadParam), "读取上传文件失败")
		return
	}
	defer f.Close()

	rows, err := h.userSvc.ParseImportFile(f)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, errCode(moduleUser, suffixValidation), "导入文件格式错误", err.Error())
		return
	}

	result, err := h.userSvc.ImportStudents(requestContext(c), rows)
	if err != nil {
		handleServiceError(c, moduleUser, err)
		return
	}

	response.OK(c, result)
}
