package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"proyecto-fct/backend/internal/kanban"
	"proyecto-fct/backend/internal/model"
)

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Task, error)
	// CountByStatus 统计某列任务数，excludeID 非空时排除该任务
	CountByStatus(ctx context.Context, projectID, status, excludeID string) (int, error)
	// ShiftPositions 对列内区间执行位置平移，excludeID 为被移动任务
	ShiftPositions(ctx context.Context, projectID string, shift kanban.Shift, excludeID string) error
	UpdatePosition(ctx context.Context, id, status string, position int, completedAt *time.Time) error
	Update(ctx context.Context, task *model.Task) error
	ReplaceAssignees(ctx context.Context, task *model.Task, users []model.User) error
	AddAssignee(ctx context.Context, task *model.Task, user *model.User) error
	RemoveAssignee(ctx context.Context, task *model.Task, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit("Assignees.*").Create(task).Error
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Where("task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) ListByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	var list []model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Where("project_id = ?", projectID).
		Order("status ASC, kanban_position ASC").
		Find(&list).Error
	return list, err
}

func (r *taskRepo) CountByStatus(ctx context.Context, projectID, status, excludeID string) (int, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("project_id = ? AND status = ?", projectID, status)
	if excludeID != "" {
		db = db.Where("task_id <> ?", excludeID)
	}
	err := db.Count(&n).Error
	return int(n), err
}

func (r *taskRepo) ShiftPositions(ctx context.Context, projectID string, shift kanban.Shift, excludeID string) error {
	db := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("project_id = ? AND status = ? AND kanban_position >= ?", projectID, shift.Status, shift.From)
	if shift.To != kanban.Unbounded {
		db = db.Where("kanban_position <= ?", shift.To)
	}
	if excludeID != "" {
		db = db.Where("task_id <> ?", excludeID)
	}
	return db.UpdateColumn("kanban_position", gorm.Expr("kanban_position + ?", shift.Delta)).Error
}

func (r *taskRepo) UpdatePosition(ctx context.Context, id, status string, position int, completedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"kanban_position": position,
			"completed_at":    completedAt,
		}).Error
}

// Update 写入任务的普通字段，状态、看板位置与完成时间只由 UpdatePosition 维护
func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).
		Omit("Assignees", "Status", "KanbanPosition", "CompletedAt").
		Save(task).Error
}

func (r *taskRepo) ReplaceAssignees(ctx context.Context, task *model.Task, users []model.User) error {
	if err := r.db.WithContext(ctx).Model(task).Omit("Assignees.*").Association("Assignees").Replace(users); err != nil {
		return err
	}
	task.Assignees = users
	return nil
}

func (r *taskRepo) AddAssignee(ctx context.Context, task *model.Task, user *model.User) error {
	return r.db.WithContext(ctx).Model(task).Omit("Assignees.*").Association("Assignees").Append(user)
}

func (r *taskRepo) RemoveAssignee(ctx context.Context, task *model.Task, user *model.User) error {
	return r.db.WithContext(ctx).Model(task).Association("Assignees").Delete(user)
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("task_id = ?", id).Delete(&model.Task{}).Error
}

// ── Comment ──

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]model.Comment, error)
	Update(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, id string) error
}

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Omit("Author").Create(c).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("comment_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepo) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	var list []model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *commentRepo) Update(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("comment_id = ?", c.CommentID).
		Updates(map[string]interface{}{
			"content":     c.Content,
			"is_internal": c.IsInternal,
		}).Error
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("comment_id = ?", id).Delete(&model.Comment{}).Error
}
