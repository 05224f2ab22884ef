package service

import (
	"context"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
)

// ActivityLogService 审计日志业务接口
type ActivityLogService interface {
	// Record 写入一条审计记录，失败只记日志
	Record(ctx context.Context, actorID, action, entityType, entityID string, oldValues, newValues model.JSONMap)
	List(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error)
}

type activityLogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityLogService 创建 ActivityLogService 实例
func NewActivityLogService(repo *repository.Repository, logger *zap.Logger) ActivityLogService {
	return &activityLogService{repo: repo, logger: logger}
}

func (s *activityLogService) Record(ctx context.Context, actorID, action, entityType, entityID string, oldValues, newValues model.JSONMap) {
	entry := &model.ActivityLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if meta, ok := RequestMetaFromContext(ctx); ok {
		if meta.IP != "" {
			entry.IPAddress = &meta.IP
		}
		if meta.UserAgent != "" {
			entry.UserAgent = &meta.UserAgent
		}
	}
	if err := s.repo.ActivityLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *activityLogService) List(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	list, total, err := s.repo.ActivityLog.ListByEntity(ctx, entityType, entityID, offset, limit)
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// ── 请求元信息 ──

// RequestMeta 审计所需的请求来源信息，由 Handler 写入 context
type RequestMeta struct {
	IP        string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta 将请求来源信息放入 context
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext 读取请求来源信息
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
