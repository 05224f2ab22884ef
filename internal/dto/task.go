package dto

// ── 任务模块 DTO ──

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	ProjectID      string   `json:"project_id"      binding:"required,uuid"`
	MilestoneID    *string  `json:"milestone_id"    binding:"omitempty,uuid"`
	Title          string   `json:"title"           binding:"required,min=1,max=500"`
	Description    string   `json:"description"     binding:"required"`
	Status         string   `json:"status"          binding:"omitempty,oneof=pending in_progress under_review completed"`
	Priority       string   `json:"priority"        binding:"omitempty,oneof=low medium high"`
	Complexity     string   `json:"complexity"      binding:"omitempty,oneof=simple medium complex"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *int     `json:"estimated_hours" binding:"omitempty,min=0"`
	Tags           []string `json:"tags"`
	AssigneeIDs    []string `json:"assignee_ids"    binding:"omitempty,dive,uuid"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	MilestoneID    *string   `json:"milestone_id"    binding:"omitempty,uuid"`
	Title          *string   `json:"title"           binding:"omitempty,min=1,max=500"`
	Description    *string   `json:"description"`
	Status         *string   `json:"status"          binding:"omitempty,oneof=pending in_progress under_review completed"`
	Priority       *string   `json:"priority"        binding:"omitempty,oneof=low medium high"`
	Complexity     *string   `json:"complexity"      binding:"omitempty,oneof=simple medium complex"`
	DueDate        *string   `json:"due_date"`
	EstimatedHours *int      `json:"estimated_hours" binding:"omitempty,min=0"`
	ActualHours    *int      `json:"actual_hours"    binding:"omitempty,min=0"`
	Tags           *[]string `json:"tags"`
	AssigneeIDs    *[]string `json:"assignee_ids"    binding:"omitempty,dive,uuid"`
}

// OnlyStatus 请求是否只修改了状态
func (r *UpdateTaskRequest) OnlyStatus() bool {
	return r.MilestoneID == nil && r.Title == nil && r.Description == nil &&
		r.Priority == nil && r.Complexity == nil && r.DueDate == nil &&
		r.EstimatedHours == nil && r.ActualHours == nil && r.Tags == nil && r.AssigneeIDs == nil
}

// MoveTaskRequest 看板移动请求
type MoveTaskRequest struct {
	Status   string `json:"status"   binding:"required,oneof=pending in_progress under_review completed"`
	Position *int   `json:"position" binding:"required,min=0"`
}

// AssignTaskRequest 指派任务请求
type AssignTaskRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// ── 评论 DTO ──

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Content    string `json:"content"     binding:"required,min=1"`
	IsInternal bool   `json:"is_internal"`
}

// UpdateCommentRequest 更新评论请求
type UpdateCommentRequest struct {
	Content    *string `json:"content"     binding:"omitempty,min=1"`
	IsInternal *bool   `json:"is_internal"`
}
