package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// AnteprojectHandler 预项目模块 HTTP 处理器
type AnteprojectHandler struct {
	anteprojectSvc service.AnteprojectService
	evaluationSvc  service.EvaluationService
}

// NewAnteprojectHandler 创建 AnteprojectHandler
func NewAnteprojectHandler(anteprojectSvc service.AnteprojectService, evaluationSvc service.EvaluationService) *AnteprojectHandler {
	return &AnteprojectHandler{anteprojectSvc: anteprojectSvc, evaluationSvc: evaluationSvc}
}

// ── CRUD ──

// List 按角色过滤的预项目列表
// GET /api/v1/anteprojects?status=xxx
func (h *AnteprojectHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AnteprojectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	list, err := h.anteprojectSvc.List(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, list)
}

// Get 预项目详情
// GET /api/v1/anteprojects/:id
func (h *AnteprojectHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.anteprojectSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// Create 学生创建预项目草稿
// POST /api/v1/anteprojects
func (h *AnteprojectHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateAnteprojectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	a, err := h.anteprojectSvc.Create(requestContext(c), &req, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.Created(c, a)
}

// Update 编辑预项目
// PUT /api/v1/anteprojects/:id
func (h *AnteprojectHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAnteprojectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	a, err := h.anteprojectSvc.Update(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// Delete 删除预项目
// DELETE /api/v1/anteprojects/:id
func (h *AnteprojectHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.anteprojectSvc.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.NoContent(c)
}

// ── 状态流转 ──

// Submit 提交评审
// POST /api/v1/anteprojects/:id/submit
func (h *AnteprojectHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.anteprojectSvc.Submit(requestContext(c), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// Review 开始评审
// POST /api/v1/anteprojects/:id/review
func (h *AnteprojectHandler) Review(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.anteprojectSvc.Review(requestContext(c), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// Approve 通过，评语可选
// POST /api/v1/anteprojects/:id/approve
func (h *AnteprojectHandler) Approve(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ApproveAnteprojectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badParam(c, moduleAnteproject, err)
		return
	}

	a, err := h.anteprojectSvc.Approve(requestContext(c), c.Param("id"), req.Comments, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// Reject 驳回，必须附评语
// POST /api/v1/anteprojects/:id/reject
func (h *AnteprojectHandler) Reject(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.RejectAnteprojectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	a, err := h.anteprojectSvc.Reject(requestContext(c), c.Param("id"), req.Comments, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// ScheduleDefense 安排答辩
// POST /api/v1/anteprojects/:id/schedule-defense
func (h *AnteprojectHandler) ScheduleDefense(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ScheduleDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	a, err := h.anteprojectSvc.ScheduleDefense(requestContext(c), c.Param("id"), req.DefenseDate, req.DefenseLocation, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// CompleteDefense 答辩完成
// POST /api/v1/anteprojects/:id/complete-defense
func (h *AnteprojectHandler) CompleteDefense(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.anteprojectSvc.CompleteDefense(requestContext(c), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, a)
}

// ── 评分 ──

// ListEvaluations 预项目评分列表
// GET /api/v1/anteprojects/:id/evaluations
func (h *AnteprojectHandler) ListEvaluations(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.evaluationSvc.ListByAnteproject(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, list)
}

// SaveEvaluations 批量保存评分，同一评审标准重复提交时覆盖
// PUT /api/v1/anteprojects/:id/evaluations
func (h *AnteprojectHandler) SaveEvaluations(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SaveEvaluationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleAnteproject, err)
		return
	}

	list, err := h.evaluationSvc.SaveEvaluations(requestContext(c), c.Param("id"), req.Evaluations, actor)
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, list)
}

// ListCriteria 启用中的评审标准
// GET /api/v1/evaluation-criteria
func (h *AnteprojectHandler) ListCriteria(c *gin.Context) {
	list, err := h.evaluationSvc.ListCriteria(c.Request.Context())
	if err != nil {
		handleServiceError(c, moduleAnteproject, err)
		return
	}

	response.OK(c, list)
}
