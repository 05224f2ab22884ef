package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
)

// 附件相关设置缺失时的默认值
var (
	defaultAllowedFileTypes = []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png", "gif"}
	defaultMaxFileSizeMB    = 50
)

// SystemSettingService 系统设置业务接口
type SystemSettingService interface {
	List(ctx context.Context) ([]model.SystemSetting, error)
	Get(ctx context.Context, key string) (*model.SystemSetting, error)
	Update(ctx context.Context, key, value string, actor access.Actor) (*model.SystemSetting, error)
	AllowedFileTypes(ctx context.Context) []string
	MaxFileSizeBytes(ctx context.Context) int64
}

type systemSettingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemSettingService 创建 SystemSettingService 实例
func NewSystemSettingService(repo *repository.Repository, logger *zap.Logger) SystemSettingService {
	return &systemSettingService{repo: repo, logger: logger}
}

func (s *systemSettingService) List(ctx context.Context) ([]model.SystemSetting, error) {
	list, err := s.repo.SystemSetting.List(ctx)
	if err != nil {
		s.logger.Error("查询系统设置失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *systemSettingService) Get(ctx context.Context, key string) (*model.SystemSetting, error) {
	setting, err := s.repo.SystemSetting.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("系统设置 %s 不存在", key)
		}
		s.logger.Error("查询系统设置失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return setting, nil
}

func (s *systemSettingService) Update(ctx context.Context, key, value string, actor access.Actor) (*model.SystemSetting, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.Forbidden("只有管理员可以修改系统设置")
	}

	setting, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !setting.IsEditable {
		return nil, pkgerrors.Forbidden("系统设置 %s 不可修改", key)
	}
	if err := validateSettingValue(setting.SettingType, value); err != nil {
		return nil, err
	}

	setting.SettingValue = value
	setting.UpdatedByID = &actor.ID
	if err := s.repo.SystemSetting.Update(ctx, setting); err != nil {
		s.logger.Error("更新系统设置失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return setting, nil
}

func (s *systemSettingService) AllowedFileTypes(ctx context.Context) []string {
	setting, err := s.repo.SystemSetting.GetByKey(ctx, model.SettingAllowedFileTypes)
	if err != nil {
		return defaultAllowedFileTypes
	}
	var types []string
	if err := json.Unmarshal([]byte(setting.SettingValue), &types); err != nil || len(types) == 0 {
		s.logger.Warn("allowed_file_types 设置格式无效，使用默认值", zap.String("value", setting.SettingValue))
		return defaultAllowedFileTypes
	}
	for i := range types {
		types[i] = strings.ToLower(strings.TrimPrefix(types[i], "."))
	}
	return types
}

func (s *systemSettingService) MaxFileSizeBytes(ctx context.Context) int64 {
	mb := defaultMaxFileSizeMB
	if setting, err := s.repo.SystemSetting.GetByKey(ctx, model.SettingMaxFileSizeMB); err == nil {
		if n, err := strconv.Atoi(setting.SettingValue); err == nil && n > 0 {
			mb = n
		}
	}
	return int64(mb) << 20
}

// validateSettingValue 按设置类型校验值
func validateSettingValue(settingType, value string) error {
	switch settingType {
	case model.SettingTypeInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return pkgerrors.Validation("设置值必须为整数")
		}
	case model.SettingTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return pkgerrors.Validation("设置值必须为 true 或 false")
		}
	case model.SettingTypeJSON:
		if !json.Valid([]byte(value)) {
			return pkgerrors.Validation("设置值必须为合法 JSON")
		}
	}
	return nil
}
