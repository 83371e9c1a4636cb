/*
 * @module service/database/connection
 * @description 按配置的驱动打开数据库连接
 * @architecture 数据访问层 - 连接管理
 * @documentReference SPEC_FULL.md
 * @stateFlow 读取数据库配置 -> 选择方言与驱动 -> 打开连接 -> 确保schema存在
 * @rules postgres 使用 pgx，pq 使用 lib/pq 驱动，sqlite 用于单机与测试
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite, github.com/lib/pq
 * @refs service/init.go, service/config/config.go
 */

package database

import (
	"fmt"
	"log/slog"
	"recordquality-service/service/config"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开数据库连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "pq":
		dialector = postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        dsn,
		})
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite 不支持并发写
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		if err := EnsureSchema(db, cfg.Schema); err != nil {
			return nil, err
		}
	}

	slog.Info("数据库连接成功", "driver", cfg.Driver)
	return db, nil
}

// EnsureSchema 创建 schema(如不存在)
func EnsureSchema(db *gorm.DB, schemaName string) error {
	if schemaName == "" || schemaName == "public" {
		return nil
	}
	// 使用双引号避免保留关键字问题
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schemaName)).Error; err != nil {
		return fmt.Errorf("创建 schema %s 失败: %w", schemaName, err)
	}
	return nil
}

// Ping 检查数据库连接是否可用
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
