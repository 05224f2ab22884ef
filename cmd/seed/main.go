package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/repository"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/database"
	applogger "proyecto-fct/backend/pkg/logger"
)

// 初始化数据库：执行迁移并写入管理员、评审标准与系统设置。
// 使用 -reset 时先回滚全部迁移再重新执行（会清空数据）。
func main() {
	reset := flag.Bool("reset", false, "回滚全部迁移后重建（清空数据）")
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, &cfg.Log, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if *reset {
		if err := database.ResetMigrations(sqlDB, logger); err != nil {
			logger.Fatal("重置数据库失败", zap.Error(err))
		}
	} else if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := service.Seed(ctx, repository.NewRepository(db), &cfg.Seed, logger)
	if err != nil {
		logger.Fatal("写入初始数据失败", zap.Error(err))
	}

	logger.Info("初始数据写入完成",
		zap.Bool("admin_created", result.AdminCreated),
		zap.Int("criteria", result.Criteria),
		zap.Int("settings", result.Settings),
	)
}
