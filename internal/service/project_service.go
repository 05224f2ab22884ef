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

// ProjectService 项目业务接口
type ProjectService interface {
	Create(ctx context.Context, req *dto.CreateProjectRequest, actor access.Actor) (*model.Project, error)
	List(ctx context.Context, status string, actor access.Actor) ([]model.Project, error)
	GetByID(ctx context.Context, id string, actor access.Actor) (*model.Project, error)
	Update(ctx context.Context, id string, req *dto.UpdateProjectRequest, actor access.Actor) (*model.Project, error)
	Delete(ctx context.Context, id string, actor access.Actor) error
	AddStudent(ctx context.Context, id, studentID string, actor access.Actor) (*model.Project, error)
	RemoveStudent(ctx context.Context, id, studentID string, actor access.Actor) (*model.Project, error)
}

type projectService struct {
	repo     *repository.Repository
	activity ActivityLogService
	logger   *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, activity ActivityLogService, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, activity: activity, logger: logger}
}

func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest, actor access.Actor) (*model.Project, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.Forbidden("只有导师或管理员可以创建项目")
	}
	if actor.Role == model.RoleTutor && req.TutorID != actor.ID {
		return nil, pkgerrors.Forbidden("导师只能以自己为导师创建项目")
	}

	tutor, err := loadTutor(ctx, s.repo, req.TutorID)
	if err != nil {
		return nil, err
	}
	var students []model.User
	if len(req.StudentIDs) > 0 {
		if students, err = loadStudents(ctx, s.repo, req.StudentIDs); err != nil {
			return nil, err
		}
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("estimated_end_date", req.EstimatedEndDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, pkgerrors.Validation("预计结束日期不能早于开始日期")
	}

	p := &model.Project{
		Title:               req.Title,
		Description:         req.Description,
		Status:              req.Status,
		TutorID:             tutor.UserID,
		StartDate:           start,
		EstimatedEndDate:    end,
		GithubRepositoryURL: req.GithubRepositoryURL,
		GithubMainBranch:    stringOr(req.GithubMainBranch, "main"),
		Tutor:               tutor,
		Students:            students,
	}
	if p.Status == "" {
		p.Status = model.ProjectStatusPlanning
	}

	if err := s.repo.Project.Create(ctx, p); err != nil {
		s.logger.Error("创建项目失败", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目已创建", zap.String("id", p.ProjectID), zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "project.create", "project", p.ProjectID, nil,
		model.JSONMap{"title": p.Title, "status": p.Status})
	return p, nil
}

func (s *projectService) List(ctx context.Context, status string, actor access.Actor) ([]model.Project, error) {
	filter := repository.ProjectFilter{Status: status}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleTutor:
		filter.TutorID = actor.ID
	case model.RoleStudent:
		filter.StudentID = actor.ID
	default:
		return []model.Project{}, nil
	}

	list, err := s.repo.Project.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询项目列表失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *projectService) GetByID(ctx context.Context, id string, actor access.Actor) (*model.Project, error) {
	p, _, err := loadProject(ctx, s.repo, id, actor)
	return p, err
}

func (s *projectService) Update(ctx context.Context, id string, req *dto.UpdateProjectRequest, actor access.Actor) (*model.Project, error) {
	var result *model.Project
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		p, flags, err := loadProject(ctx, txRepo, id, actor)
		if err != nil {
			return err
		}
		if !flags.Has(access.CapManage) {
			return pkgerrors.Forbidden("只有项目导师或管理员可以修改项目")
		}
		if req.TutorID != nil && *req.TutorID != p.TutorID && !actor.IsAdmin() {
			return pkgerrors.Forbidden("只有管理员可以更换项目导师")
		}

		if err := applyProjectFields(p, req); err != nil {
			return err
		}
		if req.TutorID != nil && *req.TutorID != p.TutorID {
			tutor, err := loadTutor(ctx, txRepo, *req.TutorID)
			if err != nil {
				return err
			}
			p.TutorID = tutor.UserID
			p.Tutor = tutor
		}

		if err := txRepo.Project.Update(ctx, p); err != nil {
			return err
		}
		if req.StudentIDs != nil {
			students := []model.User{}
			if len(*req.StudentIDs) > 0 {
				if students, err = loadStudents(ctx, txRepo, *req.StudentIDs); err != nil {
					return err
				}
			}
			if err := txRepo.Project.ReplaceStudents(ctx, p, students); err != nil {
				return err
			}
		}
		result = p
		return nil
	})
	if err != nil {
		if !isBusiness(err) {
			s.logger.Error("更新项目失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.activity.Record(ctx, actor.ID, "project.update", "project", id, nil,
		model.JSONMap{"title": result.Title, "status": result.Status})
	return result, nil
}

func applyProjectFields(p *model.Project, req *dto.UpdateProjectRequest) error {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.GithubRepositoryURL != nil {
		p.GithubRepositoryURL = req.GithubRepositoryURL
	}
	if req.GithubMainBranch != nil && *req.GithubMainBranch != "" {
		p.GithubMainBranch = *req.GithubMainBranch
	}

	dates := []struct {
		field string
		in    *string
		out   **time.Time
	}{
		{"start_date", req.StartDate, &p.StartDate},
		{"estimated_end_date", req.EstimatedEndDate, &p.EstimatedEndDate},
		{"actual_end_date", req.ActualEndDate, &p.ActualEndDate},
	}
	for _, d := range dates {
		if d.in == nil {
			continue
		}
		t, err := parseDate(d.field, d.in)
		if err != nil {
			return err
		}
		*d.out = t
	}
	if p.StartDate != nil && p.EstimatedEndDate != nil && p.EstimatedEndDate.Before(*p.StartDate) {
		return pkgerrors.Validation("预计结束日期不能早于开始日期")
	}
	return nil
}

func (s *projectService) Delete(ctx context.Context, id string, actor access.Actor) error {
	p, flags, err := loadProject(ctx, s.repo, id, actor)
	if err != nil {
		return err
	}
	if !flags.Has(access.CapManage) {
		return pkgerrors.Forbidden("只有项目导师或管理员可以删除项目")
	}
	if err := s.repo.Project.Delete(ctx, id); err != nil {
		s.logger.Error("删除项目失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("项目已删除", zap.String("id", id), zap.String("actor_id", actor.ID))
	s.activity.Record(ctx, actor.ID, "project.delete", "project", id, model.JSONMap{"title": p.Title}, nil)
	return nil
}

// ── 成员管理 ──

func (s *projectService) AddStudent(ctx context.Context, id, studentID string, actor access.Actor) (*model.Project, error) {
	p, flags, err := loadProject(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if !flags.Has(access.CapManage) {
		return nil, pkgerrors.Forbidden("只有项目导师或管理员可以管理成员")
	}
	if containsUserID(p.Students, studentID) {
		return p, nil
	}
	students, err := loadStudents(ctx, s.repo, []string{studentID})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Project.AddStudent(ctx, p, &students[0]); err != nil {
		s.logger.Error("添加项目成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	p.Students = append(p.Students, students[0])

	s.activity.Record(ctx, actor.ID, "project.add_student", "project", id, nil, model.JSONMap{"student_id": studentID})
	return p, nil
}

func (s *projectService) RemoveStudent(ctx context.Context, id, studentID string, actor access.Actor) (*model.Project, error) {
	p, flags, err := loadProject(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if !flags.Has(access.CapManage) {
		return nil, pkgerrors.Forbidden("只有项目导师或管理员可以管理成员")
	}
	idx := -1
	for i := range p.Students {
		if p.Students[i].UserID == studentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.NotFound("学生 %s 不是该项目成员", studentID)
	}
	if err := s.repo.Project.RemoveStudent(ctx, p, &p.Students[idx]); err != nil {
		s.logger.Error("移除项目成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	p.Students = append(p.Students[:idx], p.Students[idx+1:]...)

	s.activity.Record(ctx, actor.ID, "project.remove_student", "project", id, model.JSONMap{"student_id": studentID}, nil)
	return p, nil
}

func containsUserID(users []model.User, id string) bool {
	for i := range users {
		if users[i].UserID == id {
			return true
		}
	}
	return false
}
