package service

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
)

//go:embed seeds/*.yaml
var seedFS embed.FS

type criteriaSeed struct {
	Criteria []struct {
		Name         string  `yaml:"name"`
		Description  string  `yaml:"description"`
		MaxScore     float64 `yaml:"max_score"`
		DisplayOrder int     `yaml:"display_order"`
	} `yaml:"criteria"`
}

type settingsSeed struct {
	Settings []struct {
		Key         string `yaml:"key"`
		Value       string `yaml:"value"`
		Type        string `yaml:"type"`
		Description string `yaml:"description"`
		Editable    bool   `yaml:"editable"`
	} `yaml:"settings"`
}

// SeedResult 初始化数据的写入统计
type SeedResult struct {
	AdminCreated bool
	Criteria     int
	Settings     int
}

// Seed 写入管理员账号、评审标准目录与系统设置，可重复执行
func Seed(ctx context.Context, repo *repository.Repository, cfg *config.SeedConfig, logger *zap.Logger) (*SeedResult, error) {
	result := &SeedResult{}

	err := withTx(ctx, repo, logger, func(txRepo *repository.Repository) error {
		created, err := seedAdmin(ctx, txRepo, cfg)
		if err != nil {
			return err
		}
		result.AdminCreated = created

		if result.Criteria, err = seedCriteria(ctx, txRepo); err != nil {
			return err
		}
		result.Settings, err = seedSettings(ctx, txRepo)
		return err
	})
	if err != nil {
		logger.Error("写入初始数据失败", zap.Error(err))
		return nil, err
	}

	logger.Info("初始数据写入完成",
		zap.Bool("admin_created", result.AdminCreated),
		zap.Int("criteria", result.Criteria),
		zap.Int("settings", result.Settings))
	return result, nil
}

func seedAdmin(ctx context.Context, repo *repository.Repository, cfg *config.SeedConfig) (bool, error) {
	email := strings.ToLower(cfg.AdminEmail)
	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := &model.User{
		FullName:     cfg.AdminName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	if err := repo.User.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("创建管理员失败: %w", err)
	}
	return true, nil
}

func seedCriteria(ctx context.Context, repo *repository.Repository) (int, error) {
	raw, err := seedFS.ReadFile("seeds/criteria.yaml")
	if err != nil {
		return 0, err
	}
	var doc criteriaSeed
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("解析评审标准种子失败: %w", err)
	}

	for _, c := range doc.Criteria {
		row := &model.AnteprojectEvaluationCriteria{
			Name:         c.Name,
			Description:  c.Description,
			MaxScore:     c.MaxScore,
			IsActive:     true,
			DisplayOrder: c.DisplayOrder,
		}
		if err := repo.Criteria.UpsertByName(ctx, row); err != nil {
			return 0, fmt.Errorf("写入评审标准 %s 失败: %w", c.Name, err)
		}
	}
	return len(doc.Criteria), nil
}

func seedSettings(ctx context.Context, repo *repository.Repository) (int, error) {
	raw, err := seedFS.ReadFile("seeds/settings.yaml")
	if err != nil {
		return 0, err
	}
	var doc settingsSeed
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("解析系统设置种子失败: %w", err)
	}

	for _, st := range doc.Settings {
		desc := st.Description
		row := &model.SystemSetting{
			SettingKey:   st.Key,
			SettingValue: st.Value,
			SettingType:  st.Type,
			Description:  &desc,
			IsEditable:   st.Editable,
		}
		if err := repo.SystemSetting.Upsert(ctx, row); err != nil {
			return 0, fmt.Errorf("写入系统设置 %s 失败: %w", st.Key, err)
		}
	}
	return len(doc.Settings), nil
}
