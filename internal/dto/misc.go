package dto

// ── 通知 / 审计 / 系统设置 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	PaginationRequest
	Unread bool `form:"unread"`
}

// ActivityLogListRequest 审计日志查询参数
type ActivityLogListRequest struct {
	PaginationRequest
	EntityType string `form:"entity_type" binding:"omitempty,max=50"`
	EntityID   string `form:"entity_id"   binding:"omitempty,uuid"`
}

// UpdateSettingRequest 更新系统设置请求
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// UploadFileRequest 上传附件表单字段（文件本体为 multipart "file"）
type UploadFileRequest struct {
	AttachableType string `form:"attachable_type" binding:"required,oneof=task comment anteproject"`
	AttachableID   string `form:"attachable_id"   binding:"required,uuid"`
}
