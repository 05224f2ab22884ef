package model

import "time"

// 预项目状态
const (
	AnteprojectDraft            = "draft"
	AnteprojectSubmitted        = "submitted"
	AnteprojectUnderReview      = "under_review"
	AnteprojectApproved         = "approved"
	AnteprojectRejected         = "rejected"
	AnteprojectDefenseScheduled = "defense_scheduled"
	AnteprojectCompleted        = "completed"
)

// 预项目类型
const (
	ProjectTypeExecution     = "execution"
	ProjectTypeResearch      = "research"
	ProjectTypeBibliographic = "bibliographic"
	ProjectTypeManagement    = "management"
)

// 默认机构信息
const (
	DefaultInstitution = "CIFP Carlos III de Cartagena"
	DefaultModality    = "modalidad distancia"
	DefaultLocation    = "Cartagena"
)

// Anteproject 预项目（开题提案）表 — 对应 anteprojects
type Anteproject struct {
	AnteprojectID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title           string     `gorm:"type:varchar(500);not null"                     json:"title"`
	ProjectType     string     `gorm:"type:varchar(20);not null"                      json:"project_type"`
	Description     string     `gorm:"type:text;not null"                             json:"description"`
	AcademicYear    string     `gorm:"type:varchar(20);not null"                      json:"academic_year"`
	Institution     string     `gorm:"type:varchar(255);not null"                     json:"institution"`
	Modality        string     `gorm:"type:varchar(100);not null"                     json:"modality"`
	Location        string     `gorm:"type:varchar(255);not null"                     json:"location"`
	ExpectedResults StringList `gorm:"type:jsonb;not null;default:'[]'"               json:"expected_results"`
	Timeline        Timeline   `gorm:"type:jsonb;not null;default:'[]'"               json:"timeline"`
	Status          string     `gorm:"type:varchar(30);not null;default:'draft'"      json:"status"`
	TutorID         string     `gorm:"type:uuid;not null"                             json:"tutor_id"`
	SubmittedAt     *time.Time `gorm:""                                               json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time `gorm:""                                               json:"reviewed_at,omitempty"`
	EvaluationDate  *time.Time `gorm:""                                               json:"evaluation_date,omitempty"`
	DefenseDate     *time.Time `gorm:""                                               json:"defense_date,omitempty"`
	DefenseLocation *string    `gorm:"type:varchar(255)"                              json:"defense_location,omitempty"`
	TutorComments   *string    `gorm:"type:text"                                      json:"tutor_comments,omitempty"`
	VersionedModel

	// 关联
	Tutor    *User  `gorm:"foreignKey:TutorID;references:UserID"                                                     json:"tutor,omitempty"`
	Students []User `gorm:"many2many:anteproject_students;joinForeignKey:AnteprojectID;joinReferences:UserID"        json:"students,omitempty"`
}

// TableName 指定表名
func (Anteproject) TableName() string { return "anteprojects" }
