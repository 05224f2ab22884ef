package model

import "time"

// 任务状态（看板列）
const (
	TaskStatusPending     = "pending"
	TaskStatusInProgress  = "in_progress"
	TaskStatusUnderReview = "under_review"
	TaskStatusCompleted   = "completed"
)

// TaskStatuses 看板列的固定顺序
var TaskStatuses = []string{TaskStatusPending, TaskStatusInProgress, TaskStatusUnderReview, TaskStatusCompleted}

// 任务优先级与复杂度
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"

	TaskComplexitySimple  = "simple"
	TaskComplexityMedium  = "medium"
	TaskComplexityComplex = "complex"
)

// Task 任务表 — 对应 tasks
// 同一 (project_id, status) 下 kanban_position 为 0..n-1 的稠密序列
type Task struct {
	TaskID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"id"`
	ProjectID      string     `gorm:"type:uuid;not null;index:idx_tasks_board,priority:1" json:"project_id"`
	MilestoneID    *string    `gorm:"type:uuid"                                       json:"milestone_id,omitempty"`
	CreatedByID    string     `gorm:"type:uuid;not null"                              json:"created_by_id"`
	Title          string     `gorm:"type:varchar(500);not null"                      json:"title"`
	Description    string     `gorm:"type:text;not null"                              json:"description"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_tasks_board,priority:2" json:"status"`
	Priority       string     `gorm:"type:varchar(10);not null;default:'medium'"      json:"priority"`
	Complexity     string     `gorm:"type:varchar(10);not null;default:'medium'"      json:"complexity"`
	DueDate        *time.Time `gorm:"type:date"                                       json:"due_date,omitempty"`
	CompletedAt    *time.Time `gorm:""                                                json:"completed_at,omitempty"`
	EstimatedHours *int       `gorm:""                                                json:"estimated_hours,omitempty"`
	ActualHours    *int       `gorm:""                                                json:"actual_hours,omitempty"`
	KanbanPosition int        `gorm:"not null;default:0"                              json:"kanban_position"`
	Tags           StringList `gorm:"type:jsonb;not null;default:'[]'"                json:"tags"`
	SoftDeleteModel

	// 关联
	Assignees []User `gorm:"many2many:task_assignees;joinForeignKey:TaskID;joinReferences:UserID" json:"assignees,omitempty"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// Comment 任务评论表 — 对应 comments
type Comment struct {
	CommentID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TaskID     string `gorm:"type:uuid;not null;index"                       json:"task_id"`
	AuthorID   string `gorm:"type:uuid;not null"                             json:"author_id"`
	Content    string `gorm:"type:text;not null"                             json:"content"`
	IsInternal bool   `gorm:"not null;default:false"                         json:"is_internal"`
	SoftDeleteModel

	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }
