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

// CommentService 任务评论业务接口
type CommentService interface {
	ListByTask(ctx context.Context, taskID string, actor access.Actor) ([]model.Comment, error)
	Create(ctx context.Context, taskID string, req *dto.CreateCommentRequest, actor access.Actor) (*model.Comment, error)
	Update(ctx context.Context, id string, req *dto.UpdateCommentRequest, actor access.Actor) (*model.Comment, error)
	Delete(ctx context.Context, id string, actor access.Actor) error
}

type commentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, logger: logger}
}

func (s *commentService) ListByTask(ctx context.Context, taskID string, actor access.Actor) ([]model.Comment, error) {
	if _, _, _, err := loadTask(ctx, s.repo, taskID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.Comment.ListByTask(ctx, taskID)
	if err != nil {
		s.logger.Error("查询评论失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *commentService) Create(ctx context.Context, taskID string, req *dto.CreateCommentRequest, actor access.Actor) (*model.Comment, error) {
	if _, _, _, err := loadTask(ctx, s.repo, taskID, actor); err != nil {
		return nil, err
	}
	c := &model.Comment{
		TaskID:     taskID,
		AuthorID:   actor.ID,
		Content:    req.Content,
		IsInternal: req.IsInternal,
	}
	if err := s.repo.Comment.Create(ctx, c); err != nil {
		s.logger.Error("创建评论失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// loadComment 加载评论并校验操作者对所属任务可见
func (s *commentService) loadComment(ctx context.Context, id string, actor access.Actor) (*model.Comment, access.Flags, error) {
	c, err := s.repo.Comment.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, access.Flags{}, pkgerrors.NotFound("评论 %s 不存在", id)
		}
		s.logger.Error("查询评论失败", zap.String("id", id), zap.Error(err))
		return nil, access.Flags{}, err
	}
	_, _, flags, err := loadTask(ctx, s.repo, c.TaskID, actor)
	if err != nil {
		return nil, flags, err
	}
	return c, flags, nil
}

func (s *commentService) Update(ctx context.Context, id string, req *dto.UpdateCommentRequest, actor access.Actor) (*model.Comment, error) {
	c, _, err := s.loadComment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actor.ID {
		return nil, pkgerrors.Forbidden("只能修改自己的评论")
	}
	if req.Content != nil {
		c.Content = *req.Content
	}
	if req.IsInternal != nil {
		c.IsInternal = *req.IsInternal
	}
	if err := s.repo.Comment.Update(ctx, c); err != nil {
		s.logger.Error("更新评论失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, id string, actor access.Actor) error {
	c, flags, err := s.loadComment(ctx, id, actor)
	if err != nil {
		return err
	}
	if c.AuthorID != actor.ID && !flags.IsTutor && !flags.IsAdmin {
		return pkgerrors.Forbidden("只有评论作者、项目导师或管理员可以删除评论")
	}
	if err := s.repo.Comment.Delete(ctx, id); err != nil {
		s.logger.Error("删除评论失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
