package model

import "time"

// 通知类型
const (
	NotificationAnteprojectSubmitted = "anteproject_submitted"
	NotificationAnteprojectReviewed  = "anteproject_reviewed"
	NotificationDefenseScheduled     = "defense_scheduled"
	NotificationTaskAssigned         = "task_assigned"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string     `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Message        string     `gorm:"type:text;not null"                             json:"message"`
	ActionURL      *string    `gorm:"type:varchar(500)"                              json:"action_url,omitempty"`
	Metadata       JSONMap    `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	ReadAt         *time.Time `gorm:""                                               json:"read_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// ActivityLog 审计日志表 — 对应 activity_log
type ActivityLog struct {
	ActivityID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     *string `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	Action     string  `gorm:"type:varchar(100);not null"                     json:"action"`
	EntityType string  `gorm:"type:varchar(50);not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID   string  `gorm:"type:uuid;not null;index:idx_activity_entity,priority:2"        json:"entity_id"`
	OldValues  JSONMap `gorm:"type:jsonb"                                     json:"old_values,omitempty"`
	NewValues  JSONMap `gorm:"type:jsonb"                                     json:"new_values,omitempty"`
	IPAddress  *string `gorm:"type:varchar(45)"                               json:"ip_address,omitempty"`
	UserAgent  *string `gorm:"type:text"                                      json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_log" }
