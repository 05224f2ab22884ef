package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// EvaluationService 预项目评分业务接口
type EvaluationService interface {
	// SaveEvaluations 按 (预项目, 评审标准) 覆盖写入评分
	SaveEvaluations(ctx context.Context, anteprojectID string, items []dto.EvaluationItem, actor access.Actor) ([]model.AnteprojectEvaluation, error)
	ListByAnteproject(ctx context.Context, anteprojectID string, actor access.Actor) ([]model.AnteprojectEvaluation, error)
	ListCriteria(ctx context.Context) ([]model.AnteprojectEvaluationCriteria, error)
}

type evaluationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEvaluationService 创建 EvaluationService 实例
func NewEvaluationService(repo *repository.Repository, logger *zap.Logger) EvaluationService {
	return &evaluationService{repo: repo, logger: logger}
}

func (s *evaluationService) SaveEvaluations(ctx context.Context, anteprojectID string, items []dto.EvaluationItem, actor access.Actor) ([]model.AnteprojectEvaluation, error) {
	a, _, err := loadAnteproject(ctx, s.repo, anteprojectID, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, pkgerrors.Forbidden("只有导师或管理员可以评分")
	}
	if len(items) == 0 {
		return nil, pkgerrors.Validation("评分项不能为空")
	}

	// 同一标准出现多次时以最后一项为准
	byCriteria := make(map[string]dto.EvaluationItem, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if _, seen := byCriteria[it.CriteriaID]; !seen {
			order = append(order, it.CriteriaID)
		}
		byCriteria[it.CriteriaID] = it
	}

	criteria, err := s.repo.Criteria.GetByIDs(ctx, order)
	if err != nil {
		s.logger.Error("查询评审标准失败", zap.Error(err))
		return nil, err
	}
	known := make(map[string]model.AnteprojectEvaluationCriteria, len(criteria))
	for _, c := range criteria {
		known[c.CriteriaID] = c
	}
	var missing []string
	for _, id := range order {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NotFound("以下评审标准不存在: %v", missing)
	}

	now := time.Now()
	rows := make([]model.AnteprojectEvaluation, 0, len(order))
	for _, id := range order {
		it := byCriteria[id]
		c := known[id]
		if it.Score < 0 || it.Score > c.MaxScore {
			return nil, pkgerrors.Validation("评审标准 %s 的分数必须在 0 到 %g 之间", c.Name, c.MaxScore)
		}
		rows = append(rows, model.AnteprojectEvaluation{
			AnteprojectID: a.AnteprojectID,
			CriteriaID:    id,
			Score:         it.Score,
			Comments:      it.Comments,
			EvaluatedByID: actor.ID,
			EvaluatedAt:   now,
		})
	}

	if err := s.repo.Evaluation.Upsert(ctx, rows); err != nil {
		s.logger.Error("保存评分失败", zap.String("anteproject_id", anteprojectID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("评分已保存",
		zap.String("anteproject_id", anteprojectID),
		zap.Int("items", len(rows)),
		zap.String("actor_id", actor.ID))
	return s.repo.Evaluation.ListByAnteproject(ctx, anteprojectID)
}

func (s *evaluationService) ListByAnteproject(ctx context.Context, anteprojectID string, actor access.Actor) ([]model.AnteprojectEvaluation, error) {
	if _, _, err := loadAnteproject(ctx, s.repo, anteprojectID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.Evaluation.ListByAnteproject(ctx, anteprojectID)
	if err != nil {
		s.logger.Error("查询评分失败", zap.String("anteproject_id", anteprojectID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *evaluationService) ListCriteria(ctx context.Context) ([]model.AnteprojectEvaluationCriteria, error) {
	list, err := s.repo.Criteria.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询评审标准失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}
