package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/mq"
)

// NotificationService 通知业务接口
//
// Notify 为即发即忘：持久化或发布失败只记录日志，不影响触发它的业务操作。
type NotificationService interface {
	Notify(ctx context.Context, userIDs []string, n model.Notification)
	ListMine(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// notificationEvent 发布到 MQ 的事件负载
type notificationEvent struct {
	NotificationID string        `json:"notification_id"`
	UserID         string        `json:"user_id"`
	Type           string        `json:"type"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	ActionURL      *string       `json:"action_url,omitempty"`
	Metadata       model.JSONMap `json:"metadata,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type notificationService struct {
	repo      *repository.Repository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例，publisher 可为 nil
func NewNotificationService(repo *repository.Repository, publisher EventPublisher, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, publisher: publisher, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, userIDs []string, tmpl model.Notification) {
	for _, uid := range uniqueIDs(userIDs) {
		n := tmpl
		n.NotificationID = ""
		n.UserID = uid
		if err := s.repo.Notification.Create(ctx, &n); err != nil {
			s.logger.Warn("写入通知失败", zap.String("user_id", uid), zap.String("type", n.Type), zap.Error(err))
			continue
		}

		if s.publisher == nil {
			continue
		}
		evt := notificationEvent{
			NotificationID: n.NotificationID,
			UserID:         n.UserID,
			Type:           n.Type,
			Title:          n.Title,
			Message:        n.Message,
			ActionURL:      n.ActionURL,
			Metadata:       n.Metadata,
			CreatedAt:      n.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, mq.RoutingNotificationCreated, evt); err != nil {
			s.logger.Warn("发布通知事件失败", zap.String("notification_id", n.NotificationID), zap.Error(err))
		}
	}
}

func (s *notificationService) ListMine(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, unreadOnly, offset, limit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, userID, time.Now())
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return pkgerrors.NotFound("通知不存在")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID, time.Now())
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}
