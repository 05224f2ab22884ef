package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proyecto-fct/backend/internal/model"
)

// CriteriaRepository 评审标准数据访问接口
type CriteriaRepository interface {
	ListActive(ctx context.Context) ([]model.AnteprojectEvaluationCriteria, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.AnteprojectEvaluationCriteria, error)
	// UpsertByName 按名称插入或更新（初始化数据使用）
	UpsertByName(ctx context.Context, c *model.AnteprojectEvaluationCriteria) error
}

// EvaluationRepository 预项目评分数据访问接口
type EvaluationRepository interface {
	// Upsert 以 (anteproject_id, criteria_id) 为键插入或覆盖
	Upsert(ctx context.Context, items []model.AnteprojectEvaluation) error
	ListByAnteproject(ctx context.Context, anteprojectID string) ([]model.AnteprojectEvaluation, error)
}

// ── Criteria Repository 实现 ──

type criteriaRepo struct {
	db *gorm.DB
}

// NewCriteriaRepo 创建 CriteriaRepository 实例
func NewCriteriaRepo(db *gorm.DB) CriteriaRepository {
	return &criteriaRepo{db: db}
}

func (r *criteriaRepo) ListActive(ctx context.Context) ([]model.AnteprojectEvaluationCriteria, error) {
	var list []model.AnteprojectEvaluationCriteria
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&list).Error
	return list, err
}

func (r *criteriaRepo) GetByIDs(ctx context.Context, ids []string) ([]model.AnteprojectEvaluationCriteria, error) {
	var list []model.AnteprojectEvaluationCriteria
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("criteria_id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *criteriaRepo) UpsertByName(ctx context.Context, c *model.AnteprojectEvaluationCriteria) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "max_score", "is_active", "display_order", "updated_at"}),
	}).Create(c).Error
}

// ── Evaluation Repository 实现 ──

type evaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo 创建 EvaluationRepository 实例
func NewEvaluationRepo(db *gorm.DB) EvaluationRepository {
	return &evaluationRepo{db: db}
}

func (r *evaluationRepo) Upsert(ctx context.Context, items []model.AnteprojectEvaluation) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "anteproject_id"}, {Name: "criteria_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "comments", "evaluated_by_id", "evaluated_at", "updated_at"}),
	}).Omit("Criteria").Create(&items).Error
}

func (r *evaluationRepo) ListByAnteproject(ctx context.Context, anteprojectID string) ([]model.AnteprojectEvaluation, error) {
	var list []model.AnteprojectEvaluation
	err := r.db.WithContext(ctx).
		Joins("Criteria").
		Where("anteproject_evaluations.anteproject_id = ?", anteprojectID).
		Order(`"Criteria".display_order ASC`).
		Find(&list).Error
	return list, err
}
