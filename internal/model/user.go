package model

import "time"

// 用户角色
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表 — 对应 users
type User struct {
	UserID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FullName        string     `gorm:"type:varchar(255);not null"                     json:"full_name"`
	Email           string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255);not null"                     json:"-"`
	NRE             *string    `gorm:"column:nre;type:varchar(20)"                    json:"nre,omitempty"` // 仅学生
	Role            string     `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	Phone           *string    `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	Biography       *string    `gorm:"type:text"                                      json:"biography,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	EmailVerifiedAt *time.Time `gorm:""                                               json:"email_verified_at,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsActive 用户是否处于启用状态
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
