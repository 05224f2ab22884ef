package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=student tutor admin"`
	Status  string `form:"status"  binding:"omitempty,oneof=active inactive"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateUserRequest 管理员创建用户
type CreateUserRequest struct {
	FullName  string  `json:"full_name" binding:"required,min=2,max=255"`
	Email     string  `json:"email"     binding:"required,email"`
	Password  string  `json:"password"  binding:"required,min=8,max=72"`
	Role      string  `json:"role"      binding:"required,oneof=student tutor admin"`
	NRE       *string `json:"nre"       binding:"omitempty,max=20"`
	Phone     *string `json:"phone"     binding:"omitempty,max=20"`
	Biography *string `json:"biography" binding:"omitempty,max=2000"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,min=2,max=255"`
	Email     *string `json:"email"     binding:"omitempty,email"`
	Password  *string `json:"password"  binding:"omitempty,min=8,max=72"`
	NRE       *string `json:"nre"       binding:"omitempty,max=20"`
	Phone     *string `json:"phone"     binding:"omitempty,max=20"`
	Biography *string `json:"biography" binding:"omitempty,max=2000"`
	Role      *string `json:"role"      binding:"omitempty,oneof=student tutor admin"`
	Status    *string `json:"status"    binding:"omitempty,oneof=active inactive"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserError 导入失败的行
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedUser 导入成功的学生及其临时密码
type ImportedUser struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入学生结果
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Created []ImportedUser    `json:"created,omitempty"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}
