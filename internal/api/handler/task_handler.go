package handler

import (
	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// TaskHandler 任务与看板 HTTP 处理器
type TaskHandler struct {
	taskSvc    service.TaskService
	commentSvc service.CommentService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService, commentSvc service.CommentService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc, commentSvc: commentSvc}
}

// ListByProject 项目任务列表
// GET /api/v1/projects/:id/tasks
func (h *TaskHandler) ListByProject(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.taskSvc.ListByProject(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, list)
}

// Kanban 按状态分组的看板视图
// GET /api/v1/projects/:id/kanban
func (h *TaskHandler) Kanban(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	board, err := h.taskSvc.GetKanban(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, board)
}

// Get 任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	t, err := h.taskSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, t)
}

// Create 创建任务，追加到所在列末尾
// POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleTask, err)
		return
	}

	t, err := h.taskSvc.Create(requestContext(c), &req, actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.Created(c, t)
}

// Update 更新任务
// PUT /api/v1/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleTask, err)
		return
	}

	t, err := h.taskSvc.Update(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, t)
}

// Delete 删除任务
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.taskSvc.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.NoContent(c)
}

// Move 看板拖拽：移动到目标列的目标位置
// PUT /api/v1/tasks/:id/move
func (h *TaskHandler) Move(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleTask, err)
		return
	}

	t, err := h.taskSvc.Move(requestContext(c), c.Param("id"), req.Status, *req.Position, actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, t)
}

// Assign 指派任务给项目学生
// POST /api/v1/tasks/:id/assignees
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleTask, err)
		return
	}

	t, err := h.taskSvc.Assign(requestContext(c), c.Param("id"), req.UserID, actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, t)
}

// Unassign 取消指派
// DELETE /api/v1/tasks/:id/assignees/:userId
func (h *TaskHandler) Unassign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	t, err := h.taskSvc.Unassign(requestContext(c), c.Param("id"), c.Param("userId"), actor)
	if err != nil {
		handleServiceError(c, moduleTask, err)
		return
	}

	response.OK(c, t)
}

// ── 评论 ──

// ListComments 任务评论列表
// GET /api/v1/tasks/:id/comments
func (h *TaskHandler) ListComments(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.commentSvc.ListByTask(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, moduleComment, err)
		return
	}

	response.OK(c, list)
}

// CreateComment 发表评论
// POST /api/v1/tasks/:id/comments
func (h *TaskHandler) CreateComment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleComment, err)
		return
	}

	cm, err := h.commentSvc.Create(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleComment, err)
		return
	}

	response.Created(c, cm)
}

// UpdateComment 编辑评论（仅作者）
// PUT /api/v1/comments/:id
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParam(c, moduleComment, err)
		return
	}

	cm, err := h.commentSvc.Update(requestContext(c), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, moduleComment, err)
		return
	}

	response.OK(c, cm)
}

// DeleteComment 删除评论
// DELETE /api/v1/comments/:id
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.commentSvc.Delete(requestContext(c), c.Param("id"), actor); err != nil {
		handleServiceError(c, moduleComment, err)
		return
	}

	response.NoContent(c)
}
