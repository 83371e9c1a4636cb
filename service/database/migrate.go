/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新规则集、字段规则与被监控记录的表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference SPEC_FULL.md
 * @stateFlow 应用启动时执行数据库迁移 -> 创建补充索引
 * @rules 确保数据库结构与模型定义保持一致；索引创建可重复执行
 * @dependencies recordquality-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"fmt"
	"log/slog"
	"recordquality-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	slog.Info("开始数据库迁移")

	// 评分规则相关表
	err := db.AutoMigrate(
		&models.RuleSet{},
		&models.FieldRule{},
	)
	if err != nil {
		return fmt.Errorf("迁移规则表失败: %w", err)
	}

	// 被监控记录表
	if err := db.AutoMigrate(&models.MonitoredRecord{}); err != nil {
		return fmt.Errorf("迁移记录表失败: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return err
	}

	slog.Info("数据库迁移完成")
	return nil
}

// CreateIndexes 创建模型标签之外的补充索引
func CreateIndexes(db *gorm.DB) error {
	indexQueries := []string{
		// 重评分按类型+ID分页读取
		"CREATE INDEX IF NOT EXISTS idx_monitored_records_type_id ON monitored_records(record_type, id)",
		"CREATE INDEX IF NOT EXISTS idx_monitored_records_score ON monitored_records(score)",
		"CREATE INDEX IF NOT EXISTS idx_field_rules_set_position ON field_rules(rule_set_id, position)",
	}

	for _, query := range indexQueries {
		if err := db.Exec(query).Error; err != nil {
			slog.Error("创建索引失败", "query", query, "error", err)
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}
	return nil
}
