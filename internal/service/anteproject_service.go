package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// AnteprojectService 预项目业务接口
type AnteprojectService interface {
	Create(ctx context.Context, req *dto.CreateAnteprojectRequest, actor access.Actor) (*model.Anteproject, error)
	List(ctx context.Context, req *dto.AnteprojectListRequest, actor access.Actor) ([]model.Anteproject, error)
	GetByID(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error)
	Update(ctx context.Context, id string, req *dto.UpdateAnteprojectRequest, actor access.Actor) (*model.Anteproject, error)
	Delete(ctx context.Context, id string, actor access.Actor) error

	Submit(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error)
	Review(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error)
	Approve(ctx context.Context, id string, comments *string, actor access.Actor) (*model.Anteproject, error)
	Reject(ctx context.Context, id string, comments string, actor access.Actor) (*model.Anteproject, error)
	ScheduleDefense(ctx context.Context, id string, date time.Time, location string, actor access.Actor) (*model.Anteproject, error)
	CompleteDefense(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error)
}

type anteprojectService struct {
	repo          *repository.Repository
	notifications NotificationService
	activity      ActivityLogService
	logger        *zap.Logger
}

// NewAnteprojectService 创建 AnteprojectService 实例
func NewAnteprojectService(repo *repository.Repository, notifications NotificationService, activity ActivityLogService, logger *zap.Logger) AnteprojectService {
	return &anteprojectService{
		repo:          repo,
		notifications: notifications,
		activity:      activity,
		logger:        logger,
	}
}

// ── 创建 ──

func (s *anteprojectService) Create(ctx context.Context, req *dto.CreateAnteprojectRequest, actor access.Actor) (*model.Anteproject, error) {
	if actor.Role != model.RoleStudent {
		return nil, pkgerrors.Forbidden("只有学生可以创建预项目")
	}
	ids := uniqueIDs(req.StudentIDs)
	if !containsID(ids, actor.ID) {
		return nil, pkgerrors.Forbidden("创建者必须是预项目的学生之一")
	}

	tutor, err := loadTutor(ctx, s.repo, req.TutorID)
	if err != nil {
		return nil, err
	}
	students, err := loadStudents(ctx, s.repo, ids)
	if err != nil {
		return nil, err
	}

	a := &model.Anteproject{
		Title:           req.Title,
		ProjectType:     req.ProjectType,
		Description:     req.Description,
		AcademicYear:    req.AcademicYear,
		Institution:     stringOr(req.Institution, model.DefaultInstitution),
		Modality:        stringOr(req.Modality, model.DefaultModality),
		Location:        stringOr(req.Location, model.DefaultLocation),
		ExpectedResults: model.StringList(req.ExpectedResults),
		Timeline:        model.Timeline(req.Timeline),
		Status:          model.AnteprojectDraft,
		TutorID:         tutor.UserID,
		Tutor:           tutor,
		Students:        students,
	}
	if a.ExpectedResults == nil {
		a.ExpectedResults = model.StringList{}
	}
	if a.Timeline == nil {
		a.Timeline = model.Timeline{}
	}

	if err := s.repo.Anteproject.Create(ctx, a); err != nil {
		s.logger.Error("创建预项目失败", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("预项目已创建", zap.String("id", a.AnteprojectID), zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "anteproject.create", "anteproject", a.AnteprojectID, nil,
		model.JSONMap{"title": a.Title, "status": a.Status})
	return a, nil
}

// ── 查询 ──

func (s *anteprojectService) List(ctx context.Context, req *dto.AnteprojectListRequest, actor access.Actor) ([]model.Anteproject, error) {
	filter := repository.AnteprojectFilter{Status: req.Status}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleTutor:
		filter.TutorID = actor.ID
	case model.RoleStudent:
		filter.StudentID = actor.ID
	default:
		return []model.Anteproject{}, nil
	}

	list, err := s.repo.Anteproject.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询预项目列表失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *anteprojectService) GetByID(ctx context.Context, id string, actor access.Actor) (*model.Anteproject, error) {
	a, _, err := loadAnteproject(ctx, s.repo, id, actor)
	return a, err
}

// ── 更新 ──

func (s *anteprojectService) Update(ctx context.Context, id string, req *dto.UpdateAnteprojectRequest, actor access.Actor) (*model.Anteproject, error) {
	var result *model.Anteproject
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		a, flags, err := loadAnteproject(ctx, txRepo, id, actor)
		if err != nil {
			return err
		}
		if !flags.Has(access.CapEditDraft) {
			return pkgerrors.Forbidden("无权修改该预项目")
		}
		if a.Status != model.AnteprojectDraft && !actor.IsAdmin() {
			return pkgerrors.Forbidden("只有草稿状态的预项目可以修改")
		}

		if req.StudentIDs != nil && len(*req.StudentIDs) == 0 {
			return pkgerrors.Validation("预项目至少需要一名学生")
		}
		// 原样回传当前导师或学生名单不算更换
		tutorChanged := req.TutorID != nil && *req.TutorID != a.TutorID
		studentsChanged := req.StudentIDs != nil && !sameUserSet(a.Students, *req.StudentIDs)
		if (tutorChanged || studentsChanged) && !flags.Has(access.CapReassign) {
			return pkgerrors.Forbidden("只有导师或管理员可以更换导师或学生")
		}

		applyAnteprojectFields(a, req)

		if tutorChanged {
			tutor, err := loadTutor(ctx, txRepo, *req.TutorID)
			if err != nil {
				return err
			}
			a.TutorID = tutor.UserID
			a.Tutor = tutor
		}

		if err := txRepo.Anteproject.Update(ctx, a); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return pkgerrors.Conflict("预项目已被其他人修改，请刷新后重试")
			}
			return err
		}

		if studentsChanged {
			students, err := loadStudents(ctx, txRepo, *req.StudentIDs)
			if err != nil {
				return err
			}
			if err := txRepo.Anteproject.ReplaceStudents(ctx, a, students); err != nil {
				return err
			}
		}
		result = a
		return nil
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("更新预项目失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.activity.Record(ctx, actor.ID, "anteproject.update", "anteproject", id, nil,
		model.JSONMap{"title": result.Title, "version": result.Version})
	return result, nil
}

// sameUserSet 判断 ids 与现有成员是否为同一集合（忽略顺序与重复）
func sameUserSet(users []model.User, ids []string) bool {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	if len(want) != len(users) {
		return false
	}
	for i := range users {
		if _, ok := want[users[i].UserID]; !ok {
			return false
		}
	}
	return true
}

func applyAnteprojectFields(a *model.Anteproject, req *dto.UpdateAnteprojectRequest) {
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.ProjectType != nil {
		a.ProjectType = *req.ProjectType
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.AcademicYear != nil {
		a.AcademicYear = *req.AcademicYear
	}
	if req.Institution != nil {
		a.Institution = *req.Institution
	}
	if req.Modality != nil {
		a.Modality = *req.Modality
	}
	if req.Location != nil {
		a.Location = *req.Location
	}
	if req.ExpectedResults != nil {
		a.ExpectedResults = model.StringList(*req.ExpectedResults)
	}
	if req.Timeline != nil {
		a.Timeline = model.Timeline(*req.Timeline)
	}
}

// ── 删除 ──

func (s *anteprojectService) Delete(ctx context.Context, id string, actor access.Actor) error {
	a, flags, err := loadAnteproject(ctx, s.repo, id, actor)
	if err != nil {
		return err
	}
	if !flags.Has(access.CapEditDraft) {
		return pkgerrors.Forbidden("无权删除该预项目")
	}
	if a.Status != model.AnteprojectDraft && !actor.IsAdmin() {
		return pkgerrors.Forbidden("只有草稿状态的预项目可以删除")
	}

	if err := s.repo.Anteproject.Delete(ctx, id); err != nil {
		s.logger.Error("删除预项目失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("预项目已删除", zap.String("id", id), zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "anteproject.delete", "anteproject", id,
		model.JSONMap{"title": a.Title, "status": a.Status}, nil)
	return nil
}

// ── 辅助 ──

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
