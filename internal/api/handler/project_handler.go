package handler

import (
	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// ProjectHandler 项目与里程碑 HTTP 处理器
type ProjectHandler struct {
	projectSvc   service.ProjectService
	milestoneSvc service.MilestoneService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService, milestoneSvc service.MilestoneService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc, milestoneSvc: milestoneSvc}
}

// List 按角色过滤的项目列表
// GET /api/v1/projects?status=xxx
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.projectSvc.List(c.Request.Context(), c.Query("status"), actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, list)
}

// Get 项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	p, err := h.projectSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, p)
}

// Create 创建项目（导师、管理员）
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleProject, err)
		return
	}

	p, err := h.projectSvc.Create(requestContext(c), &req, actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.Created(c, p)
}

// Update 更新项目
// PUT /api/v1/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleProject, err)
		return
	}

	p, err := h.projectSvc.Update(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, p)
}

// Delete 删除项目
// DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.projectSvc.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.NoContent(c)
}

// ── 成员 ──

// AddStudent 添加项目学生
// POST /api/v1/projects/:id/students
func (h *ProjectHandler) AddStudent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ProjectMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleProject, err)
		return
	}

	p, err := h.projectSvc.AddStudent(requestContext(c), c.Param("id"), req.StudentID, actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, p)
}

// RemoveStudent 移除项目学生
// DELETE /api/v1/projects/:id/students/:studentId
func (h *ProjectHandler) RemoveStudent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	p, err := h.projectSvc.RemoveStudent(requestContext(c), c.Param("id"), c.Param("studentId"), actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, p)
}

// ── 里程碑 ──

// ListMilestones 项目里程碑列表
// GET /api/v1/projects/:id/milestones
func (h *ProjectHandler) ListMilestones(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.milestoneSvc.ListByProject(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.OK(c, list)
}

// CreateMilestone 创建里程碑，编号自动递增
// POST /api/v1/projects/:id/milestones
func (h *ProjectHandler) CreateMilestone(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleProject, err)
		return
	}

	m, err := h.milestoneSvc.Create(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleProject, err)
		return
	}

	response.Created(c, m)
}
