package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/jwt"
)

// ── 外部协作者接口 ──

// EventPublisher 领域事件发布（pkg/mq.Publisher 实现）
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// TokenBlacklist Token 黑名单（pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// FileStore 附件存储（pkg/storage.LocalStore 实现）
type FileStore interface {
	Save(original string, r io.Reader, maxBytes int64) (name, path string, size int64, err error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// Deps 构造 Service 聚合所需的依赖，可选协作者为 nil 时对应功能降级
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Publisher EventPublisher
	Store     FileStore
	Logger    *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	User          UserService
	Anteproject   AnteprojectService
	Evaluation    EvaluationService
	Project       ProjectService
	Milestone     MilestoneService
	Task          TaskService
	Comment       CommentService
	File          FileService
	Notification  NotificationService
	ActivityLog   ActivityLogService
	SystemSetting SystemSettingService
	Export        ExportService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	notifications := NewNotificationService(d.Repo, d.Publisher, d.Logger)
	activity := NewActivityLogService(d.Repo, d.Logger)
	settings := NewSystemSettingService(d.Repo, d.Logger)

	return &Service{
		Auth:          NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:          NewUserService(d.Repo, d.Logger),
		Anteproject:   NewAnteprojectService(d.Repo, notifications, activity, d.Logger),
		Evaluation:    NewEvaluationService(d.Repo, d.Logger),
		Project:       NewProjectService(d.Repo, activity, d.Logger),
		Milestone:     NewMilestoneService(d.Repo, d.Logger),
		Task:          NewTaskService(d.Repo, notifications, activity, d.Logger),
		Comment:       NewCommentService(d.Repo, d.Logger),
		File:          NewFileService(d.Repo, d.Store, settings, d.Logger),
		Notification:  notifications,
		ActivityLog:   activity,
		SystemSetting: settings,
		Export:        NewExportService(d.Repo, d.Logger),
	}
}

// ── 内部辅助 ──

// withTx 在事务中执行 fn；mock 环境下 BeginTx 返回 nil，直接在原聚合上执行
func withTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// isBusiness 错误是否属于可直接返回给调用方的业务分类
func isBusiness(err error) bool {
	return errors.Is(err, pkgerrors.ErrNotFound) ||
		errors.Is(err, pkgerrors.ErrForbidden) ||
		errors.Is(err, pkgerrors.ErrValidation) ||
		errors.Is(err, pkgerrors.ErrConflict) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

const dateLayout = "2006-01-02"

// parseDate 解析 "2006-01-02" 格式日期，nil 或空串返回 nil
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, pkgerrors.Validation("%s 日期格式应为 YYYY-MM-DD", field)
	}
	return &t, nil
}

// uniqueIDs 去重并保持顺序
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// loadTutor 校验用户存在且角色为导师
func loadTutor(ctx context.Context, repo *repository.Repository, id string) (*model.User, error) {
	u, err := repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("导师 %s 不存在", id)
		}
		return nil, err
	}
	if u.Role != model.RoleTutor {
		return nil, pkgerrors.NotFound("用户 %s 不是导师", id)
	}
	return u, nil
}

// loadStudents 校验全部用户存在且角色为学生，缺失的 ID 一并列出
func loadStudents(ctx context.Context, repo *repository.Repository, ids []string) ([]model.User, error) {
	ids = uniqueIDs(ids)
	users, err := repo.User.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Role == model.RoleStudent {
			found[u.UserID] = true
		}
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NotFound("以下学生不存在或角色不是学生: %v", missing)
	}
	return users, nil
}

// loadProject 加载项目并校验操作者可见
func loadProject(ctx context.Context, repo *repository.Repository, id string, actor access.Actor) (*model.Project, access.Flags, error) {
	p, err := repo.Project.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Flags{}, pkgerrors.NotFound("项目 %s 不存在", id)
		}
		return nil, access.Flags{}, err
	}
	flags := access.ForProject(p, actor)
	if !flags.Has(access.CapView) {
		return nil, flags, pkgerrors.Forbidden("无权访问该项目")
	}
	return p, flags, nil
}

// loadTask 加载任务及其项目并校验操作者可见
func loadTask(ctx context.Context, repo *repository.Repository, id string, actor access.Actor) (*model.Task, *model.Project, access.Flags, error) {
	t, err := repo.Task.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, access.Flags{}, pkgerrors.NotFound("任务 %s 不存在", id)
		}
		return nil, nil, access.Flags{}, err
	}
	p, err := repo.Project.GetByID(ctx, t.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, access.Flags{}, pkgerrors.NotFound("任务所属项目不存在")
		}
		return nil, nil, access.Flags{}, err
	}
	flags := access.ForTask(t, p, actor)
	if !flags.Has(access.CapView) {
		return nil, nil, flags, pkgerrors.Forbidden("无权访问该任务")
	}
	return t, p, flags, nil
}

// loadAnteproject 加载预项目并校验操作者可见
func loadAnteproject(ctx context.Context, repo *repository.Repository, id string, actor access.Actor) (*model.Anteproject, access.Flags, error) {
	a, err := repo.Anteproject.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Flags{}, pkgerrors.NotFound("预项目 %s 不存在", id)
		}
		return nil, access.Flags{}, err
	}
	flags := access.ForAnteproject(a, actor)
	if flags.None() {
		return nil, flags, pkgerrors.Forbidden("无权访问该预项目")
	}
	return a, flags, nil
}
