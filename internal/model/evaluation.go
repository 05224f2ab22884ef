package model

import "time"

// AnteprojectEvaluationCriteria 评审标准目录 — 对应 anteproject_evaluation_criteria
type AnteprojectEvaluationCriteria struct {
	CriteriaID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	Description  string  `gorm:"type:text;not null"                             json:"description"`
	MaxScore     float64 `gorm:"type:numeric(4,2);not null;default:10"          json:"max_score"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	DisplayOrder int     `gorm:"not null;default:0"                             json:"display_order"`
	BaseModel
}

// TableName 指定表名
func (AnteprojectEvaluationCriteria) TableName() string { return "anteproject_evaluation_criteria" }

// AnteprojectEvaluation 预项目单项评分表，(anteproject_id, criteria_id) 唯一
type AnteprojectEvaluation struct {
	EvaluationID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"    json:"id"`
	AnteprojectID string    `gorm:"type:uuid;not null;uniqueIndex:uq_evaluation_item" json:"anteproject_id"`
	CriteriaID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_evaluation_item" json:"criteria_id"`
	Score         float64   `gorm:"type:numeric(4,2);not null"                        json:"score"`
	Comments      *string   `gorm:"type:text"                                         json:"comments,omitempty"`
	EvaluatedByID string    `gorm:"type:uuid;not null"                                json:"evaluated_by_id"`
	EvaluatedAt   time.Time `gorm:"not null"                                          json:"evaluated_at"`
	BaseModel

	Criteria *AnteprojectEvaluationCriteria `gorm:"foreignKey:CriteriaID;references:CriteriaID" json:"criteria,omitempty"`
}

// TableName 指定表名
func (AnteprojectEvaluation) TableName() string { return "anteproject_evaluations" }
