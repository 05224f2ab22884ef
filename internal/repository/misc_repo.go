package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proyecto-fct/backend/internal/model"
)

// ── File ──

// FileRepository 附件数据访问接口
type FileRepository interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id string) (*model.File, error)
	ListByAttachable(ctx context.Context, attachableType, attachableID string) ([]model.File, error)
}

type fileRepo struct {
	db *gorm.DB
}

// NewFileRepo 创建 FileRepository 实例
func NewFileRepo(db *gorm.DB) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.File, error) {
	var f model.File
	if err := r.db.WithContext(ctx).Where("file_id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) ListByAttachable(ctx context.Context, attachableType, attachableID string) ([]model.File, error) {
	var list []model.File
	err := r.db.WithContext(ctx).
		Where("attachable_type = ? AND attachable_id = ?", attachableType, attachableID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ── Notification ──

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	// MarkRead 返回是否命中（通知不存在或不属于该用户时为 false）
	MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("read_at IS NULL")
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", id, userID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	return result.RowsAffected > 0, result.Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

// ── Activity Log ──

// ActivityLogRepository 审计日志数据访问接口
type ActivityLogRepository interface {
	Create(ctx context.Context, l *model.ActivityLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, l *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *activityLogRepo) ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var list []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if entityType != "" {
		db = db.Where("entity_type = ?", entityType)
	}
	if entityID != "" {
		db = db.Where("entity_id = ?", entityID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ── System Settings ──

// SystemSettingRepository 系统设置数据访问接口
type SystemSettingRepository interface {
	List(ctx context.Context) ([]model.SystemSetting, error)
	GetByKey(ctx context.Context, key string) (*model.SystemSetting, error)
	Update(ctx context.Context, s *model.SystemSetting) error
	// Upsert 初始化数据使用：已存在的键保留当前值，只刷新描述与可编辑标记
	Upsert(ctx context.Context, s *model.SystemSetting) error
}

type systemSettingRepo struct {
	db *gorm.DB
}

// NewSystemSettingRepo 创建 SystemSettingRepository 实例
func NewSystemSettingRepo(db *gorm.DB) SystemSettingRepository {
	return &systemSettingRepo{db: db}
}

func (r *systemSettingRepo) List(ctx context.Context) ([]model.SystemSetting, error) {
	var list []model.SystemSetting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&list).Error
	return list, err
}

func (r *systemSettingRepo) GetByKey(ctx context.Context, key string) (*model.SystemSetting, error) {
	var s model.SystemSetting
	if err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *systemSettingRepo) Update(ctx context.Context, s *model.SystemSetting) error {
	return r.db.WithContext(ctx).
		Model(&model.SystemSetting{}).
		Where("setting_key = ?", s.SettingKey).
		Updates(map[string]interface{}{
			"setting_value": s.SettingValue,
			"updated_by_id": s.UpdatedByID,
		}).Error
}

func (r *systemSettingRepo) Upsert(ctx context.Context, s *model.SystemSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_type", "description", "is_editable", "updated_at"}),
	}).Create(s).Error
}
