package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Anteproject   AnteprojectRepository
	Criteria      CriteriaRepository
	Evaluation    EvaluationRepository
	Project       ProjectRepository
	Milestone     MilestoneRepository
	Task          TaskRepository
	Comment       CommentRepository
	File          FileRepository
	Notification  NotificationRepository
	ActivityLog   ActivityLogRepository
	SystemSetting SystemSettingRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Anteproject:   NewAnteprojectRepo(db),
		Criteria:      NewCriteriaRepo(db),
		Evaluation:    NewEvaluationRepo(db),
		Project:       NewProjectRepo(db),
		Milestone:     NewMilestoneRepo(db),
		Task:          NewTaskRepo(db),
		Comment:       NewCommentRepo(db),
		File:          NewFileRepo(db),
		Notification:  NewNotificationRepo(db),
		ActivityLog:   NewActivityLogRepo(db),
		SystemSetting: NewSystemSettingRepo(db),
	}
}

// BeginTx 开启事务
// db 为 nil（单元测试中使用 mock 聚合）时返回 nil，调用方需容忍 nil 事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合
// tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
