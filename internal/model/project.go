package model

import "time"

// 项目状态
const (
	ProjectStatusAnteproject   = "anteproject"
	ProjectStatusPlanning      = "planning"
	ProjectStatusInDevelopment = "in_development"
	ProjectStatusUnderReview   = "under_review"
	ProjectStatusCompleted     = "completed"
)

// Project 项目表 — 对应 projects
type Project struct {
	ProjectID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"id"`
	Title               string     `gorm:"type:varchar(500);not null"                      json:"title"`
	Description         string     `gorm:"type:text;not null"                              json:"description"`
	Status              string     `gorm:"type:varchar(20);not null;default:'anteproject'" json:"status"`
	TutorID             string     `gorm:"type:uuid;not null"                              json:"tutor_id"`
	StartDate           *time.Time `gorm:"type:date"                                       json:"start_date,omitempty"`
	EstimatedEndDate    *time.Time `gorm:"type:date"                                       json:"estimated_end_date,omitempty"`
	ActualEndDate       *time.Time `gorm:"type:date"                                       json:"actual_end_date,omitempty"`
	GithubRepositoryURL *string    `gorm:"type:varchar(500)"                               json:"github_repository_url,omitempty"`
	GithubMainBranch    string     `gorm:"type:varchar(100);not null;default:'main'"       json:"github_main_branch"`
	LastActivityAt      *time.Time `gorm:""                                                json:"last_activity_at,omitempty"`
	SoftDeleteModel

	// 关联
	Tutor    *User  `gorm:"foreignKey:TutorID;references:UserID"                                        json:"tutor,omitempty"`
	Students []User `gorm:"many2many:project_students;joinForeignKey:ProjectID;joinReferences:UserID"   json:"students,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// 里程碑状态与类型
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusDelayed    = "delayed"

	MilestoneTypePlanning  = "planning"
	MilestoneTypeExecution = "execution"
	MilestoneTypeReview    = "review"
	MilestoneTypeFinal     = "final"
)

// Milestone 项目里程碑表 — 对应 milestones，(project_id, milestone_number) 唯一
type Milestone struct {
	MilestoneID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"id"`
	ProjectID            string     `gorm:"type:uuid;not null"                              json:"project_id"`
	MilestoneNumber      int        `gorm:"not null"                                        json:"milestone_number"`
	Title                string     `gorm:"type:varchar(255);not null"                      json:"title"`
	Description          string     `gorm:"type:text;not null"                              json:"description"`
	PlannedDate          time.Time  `gorm:"type:date;not null"                              json:"planned_date"`
	CompletedDate        *time.Time `gorm:"type:date"                                       json:"completed_date,omitempty"`
	Status               string     `gorm:"type:varchar(20);not null;default:'pending'"     json:"status"`
	MilestoneType        string     `gorm:"type:varchar(20);not null;default:'execution'"   json:"milestone_type"`
	IsFromAnteproject    bool       `gorm:"not null;default:false"                          json:"is_from_anteproject"`
	ExpectedDeliverables StringList `gorm:"type:jsonb;not null;default:'[]'"                json:"expected_deliverables"`
	ReviewComments       *string    `gorm:"type:text"                                       json:"review_comments,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Milestone) TableName() string { return "milestones" }
