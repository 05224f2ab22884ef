package dto

import (
	"time"

	"proyecto-fct/backend/internal/model"
)

// ── 预项目模块 DTO ──

// CreateAnteprojectRequest 创建预项目请求
type CreateAnteprojectRequest struct {
	Title           string                `json:"title"            binding:"required,min=3,max=500"`
	ProjectType     string                `json:"project_type"     binding:"required,oneof=execution research bibliographic management"`
	Description     string                `json:"description"      binding:"required"`
	AcademicYear    string                `json:"academic_year"    binding:"required,max=20"`
	Institution     *string               `json:"institution"      binding:"omitempty,max=255"`
	Modality        *string               `json:"modality"         binding:"omitempty,max=100"`
	Location        *string               `json:"location"         binding:"omitempty,max=255"`
	ExpectedResults []string              `json:"expected_results" binding:"omitempty,dive,required"`
	Timeline        []model.TimelinePhase `json:"timeline"`
	TutorID         string                `json:"tutor_id"         binding:"required,uuid"`
	StudentIDs      []string              `json:"student_ids"      binding:"required,min=1,dive,uuid"`
}

// UpdateAnteprojectRequest 更新预项目请求（均为可选）
type UpdateAnteprojectRequest struct {
	Title           *string                `json:"title"            binding:"omitempty,min=3,max=500"`
	ProjectType     *string                `json:"project_type"     binding:"omitempty,oneof=execution research bibliographic management"`
	Description     *string                `json:"description"`
	AcademicYear    *string                `json:"academic_year"    binding:"omitempty,max=20"`
	Institution     *string                `json:"institution"      binding:"omitempty,max=255"`
	Modality        *string                `json:"modality"         binding:"omitempty,max=100"`
	Location        *string                `json:"location"         binding:"omitempty,max=255"`
	ExpectedResults *[]string              `json:"expected_results"`
	Timeline        *[]model.TimelinePhase `json:"timeline"`
	TutorID         *string                `json:"tutor_id"         binding:"omitempty,uuid"`
	StudentIDs      *[]string              `json:"student_ids"      binding:"omitempty,min=1,dive,uuid"`
}

// AnteprojectListRequest 预项目列表查询参数
type AnteprojectListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft submitted under_review approved rejected defense_scheduled completed"`
}

// RejectAnteprojectRequest 驳回请求
type RejectAnteprojectRequest struct {
	Comments string `json:"comments" binding:"required,min=1"`
}

// ApproveAnteprojectRequest 通过请求（评语可选）
type ApproveAnteprojectRequest struct {
	Comments *string `json:"comments"`
}

// ScheduleDefenseRequest 安排答辩请求
type ScheduleDefenseRequest struct {
	DefenseDate     time.Time `json:"defense_date"     binding:"required"`
	DefenseLocation string    `json:"defense_location" binding:"required,min=1,max=255"`
}

// ── 评审 DTO ──

// EvaluationItem 单项评分
type EvaluationItem struct {
	CriteriaID string  `json:"criteria_id" binding:"required,uuid"`
	Score      float64 `json:"score"       binding:"min=0,max=10"`
	Comments   *string `json:"comments"`
}

// SaveEvaluationsRequest 批量保存评分请求
type SaveEvaluationsRequest struct {
	Evaluations []EvaluationItem `json:"evaluations" binding:"required,min=1,dive"`
}
