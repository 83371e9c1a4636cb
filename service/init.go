/*
 * @module service/init
 * @description 服务初始化模块，负责配置加载、数据库连接、缓存与锁、事件发布器及业务服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 加载配置 -> 初始化日志 -> 连接数据库并迁移 -> Redis(可选) -> 字段目录 -> 事件发布器 -> 业务服务 -> 定时重评分
 * @rules 确保所有依赖服务正常启动后才提供API服务；Redis未启用时使用进程内缓存与本地锁
 * @dependencies gorm.io/gorm, github.com/go-redis/redis/v8
 * @refs main.go, api/routes.go
 */

package service

import (
	"context"
	"fmt"
	"log/slog"
	"recordquality-service/client/connectors"
	"recordquality-service/logger"
	"recordquality-service/service/catalog"
	"recordquality-service/service/config"
	"recordquality-service/service/database"
	"recordquality-service/service/distributed_lock"
	"recordquality-service/service/models"
	"recordquality-service/service/record_scoring"
	"recordquality-service/service/rulestore"
	"recordquality-service/service/scoring"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const lockNamespace = "recordquality"

var (
	Config                  *config.Config
	DB                      *gorm.DB
	RedisClient             *redis.Client
	GlobalEventPublisher    models.EventPublisher
	GlobalCatalog           catalog.Catalog
	GlobalScoringEngine     *scoring.Engine
	GlobalRuleStore         *rulestore.RuleStore
	GlobalScoringService    *record_scoring.ScoringService
	GlobalRecordService     *record_scoring.RecordService
	GlobalRescoreScheduler  *record_scoring.RescoreScheduler
	cancelBackgroundWatches context.CancelFunc
)

// InitServices 初始化全部服务，configFile 为空时读取 CONFIG_FILE 环境变量
func InitServices(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	Config = cfg
	logger.InitLogger(cfg.Log.Level)

	if err := initDatabase(cfg.Database); err != nil {
		return err
	}

	cache, lock, err := initRedis(ctx, cfg)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	cancelBackgroundWatches = cancel
	GlobalCatalog, err = initCatalog(watchCtx, cfg.Catalog)
	if err != nil {
		return err
	}

	GlobalEventPublisher, err = connectors.NewPublisher(ctx, cfg.Events)
	if err != nil {
		return fmt.Errorf("初始化事件发布器失败: %w", err)
	}

	initServices(cfg, cache, lock)

	if cfg.Rescore.Enabled {
		if err := GlobalRescoreScheduler.Start(); err != nil {
			return fmt.Errorf("启动重评分调度器失败: %w", err)
		}
	}

	slog.Info("服务初始化完成",
		"database", cfg.Database.Driver,
		"redis", cfg.Redis.Enabled,
		"publisher", cfg.Events.Publisher,
		"rescore", cfg.Rescore.Enabled)
	return nil
}

// initDatabase 初始化数据库连接并执行迁移
func initDatabase(cfg config.DatabaseConfig) error {
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	DB = db
	slog.Info("数据库连接成功", "driver", cfg.Driver)
	return nil
}

// initRedis 启用Redis时使用共享缓存与分布式锁，否则退化为进程内实现
func initRedis(ctx context.Context, cfg *config.Config) (rulestore.RuleSetCache, distributed_lock.DistributedLock, error) {
	if !cfg.Redis.Enabled {
		return rulestore.NewMemoryRuleSetCache(cfg.Cache.TTL), distributed_lock.NewLocalLock(), nil
	}

	client, err := connectors.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	RedisClient = client
	return rulestore.NewRedisRuleSetCache(client, cfg.Cache.TTL), distributed_lock.NewRedisLock(client, lockNamespace), nil
}

// initCatalog 加载字段目录并监听文件变更
func initCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Catalog, error) {
	if cfg.File == "" {
		return catalog.EmptyCatalog{}, nil
	}

	fileCatalog, err := catalog.NewFileCatalog(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("加载字段目录失败: %w", err)
	}
	go func() {
		if err := fileCatalog.Watch(ctx); err != nil {
			slog.Error("字段目录监听退出", "file", cfg.File, "error", err)
		}
	}()
	return fileCatalog, nil
}

// initServices 装配业务服务
func initServices(cfg *config.Config, cache rulestore.RuleSetCache, lock distributed_lock.DistributedLock) {
	GlobalScoringEngine = scoring.NewEngine(scoring.LabelDeriver{
		CustomSuffix: cfg.Label.CustomSuffix,
		IDSuffix:     cfg.Label.IDSuffix,
	})
	GlobalRuleStore = rulestore.NewRuleStore(DB, cache, GlobalEventPublisher)
	GlobalScoringService = record_scoring.NewScoringService(GlobalRuleStore, GlobalScoringEngine, GlobalCatalog, GlobalEventPublisher)
	GlobalRecordService = record_scoring.NewRecordService(DB, GlobalScoringService)

	rescoreConfig := record_scoring.DefaultRescoreConfig()
	if cfg.Rescore.Cron != "" {
		rescoreConfig.CronExpression = cfg.Rescore.Cron
	}
	if cfg.Rescore.BatchSize > 0 {
		rescoreConfig.BatchSize = cfg.Rescore.BatchSize
	}
	if cfg.Rescore.Concurrency > 0 {
		rescoreConfig.Concurrency = cfg.Rescore.Concurrency
	}
	GlobalRescoreScheduler = record_scoring.NewRescoreScheduler(GlobalRecordService, GlobalScoringService, lock, rescoreConfig)
}

// Shutdown 停止后台任务并释放连接
func Shutdown() {
	if GlobalRescoreScheduler != nil {
		GlobalRescoreScheduler.Stop()
	}
	if cancelBackgroundWatches != nil {
		cancelBackgroundWatches()
	}
	if GlobalEventPublisher != nil {
		if err := GlobalEventPublisher.Close(); err != nil {
			slog.Warn("关闭事件发布器失败", "error", err)
		}
	}
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			slog.Warn("关闭Redis连接失败", "error", err)
		}
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	slog.Info("服务已关闭")
}
