package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求（注册用户一律为学生）
type RegisterRequest struct {
	FullName string  `json:"full_name" binding:"required,min=2,max=255"`
	Email    string  `json:"email"     binding:"required,email"`
	Password string  `json:"password"  binding:"required,min=8,max=72"`
	NRE      *string `json:"nre"       binding:"omitempty,max=20"`
	Phone    *string `json:"phone"     binding:"omitempty,max=20"`
	Role     string  `json:"role"      binding:"omitempty,oneof=student tutor admin"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
