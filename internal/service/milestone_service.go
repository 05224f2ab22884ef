package service

import (
	"context"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// MilestoneService 里程碑业务接口
type MilestoneService interface {
	ListByProject(ctx context.Context, projectID string, actor access.Actor) ([]model.Milestone, error)
	Create(ctx context.Context, projectID string, req *dto.CreateMilestoneRequest, actor access.Actor) (*model.Milestone, error)
}

type milestoneService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMilestoneService 创建 MilestoneService 实例
func NewMilestoneService(repo *repository.Repository, logger *zap.Logger) MilestoneService {
	return &milestoneService{repo: repo, logger: logger}
}

func (s *milestoneService) ListByProject(ctx context.Context, projectID string, actor access.Actor) ([]model.Milestone, error) {
	if _, _, err := loadProject(ctx, s.repo, projectID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.Milestone.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询里程碑失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Create 编号取项目内最大编号加一，项目行锁保证并发创建时编号不重复
func (s *milestoneService) Create(ctx context.Context, projectID string, req *dto.CreateMilestoneRequest, actor access.Actor) (*model.Milestone, error) {
	planned, err := parseDate("planned_date", &req.PlannedDate)
	if err != nil {
		return nil, err
	}
	if planned == nil {
		return nil, pkgerrors.Validation("planned_date 不能为空")
	}

	m := &model.Milestone{
		ProjectID:            projectID,
		Title:                req.Title,
		Description:          req.Description,
		PlannedDate:          *planned,
		Status:               model.MilestoneStatusPending,
		MilestoneType:        req.MilestoneType,
		IsFromAnteproject:    req.IsFromAnteproject,
		ExpectedDeliverables: model.StringList(req.ExpectedDeliverables),
	}
	if m.MilestoneType == "" {
		m.MilestoneType = model.MilestoneTypeExecution
	}
	if m.ExpectedDeliverables == nil {
		m.ExpectedDeliverables = model.StringList{}
	}

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		_, flags, err := loadProject(ctx, txRepo, projectID, actor)
		if err != nil {
			return err
		}
		if !flags.Has(access.CapManage) {
			return pkgerrors.Forbidden("只有项目导师或管理员可以创建里程碑")
		}
		if err := txRepo.Project.LockForUpdate(ctx, projectID); err != nil {
			return err
		}
		max, err := txRepo.Milestone.MaxNumber(ctx, projectID)
		if err != nil {
			return err
		}
		m.MilestoneNumber = max + 1
		return txRepo.Milestone.Create(ctx, m)
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("创建里程碑失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}
	return m, nil
}
