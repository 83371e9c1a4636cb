/*
 * @module service/rulestore/store
 * @description 规则存储，维护记录类型到规则集的权威映射，提供原子的整体替换更新
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 校验 -> 开启事务 -> 锁定规则集行并递增版本 -> 删除全部字段规则 -> 插入新规则 -> 提交 -> 写入缓存失效标记 -> 发布事件
 * @rules 每个记录类型只允许一个规则集；替换要么全部生效要么全部回滚；同类型并发替换串行执行
 * @dependencies gorm.io/gorm, service/models, service/metrics
 * @refs service/rulestore/cache.go, service/record_scoring/
 */

package rulestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"recordquality-service/service/metrics"
	"recordquality-service/service/models"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RuleStore 规则存储
type RuleStore struct {
	db        *gorm.DB
	cache     RuleSetCache
	publisher models.EventPublisher
}

// NewRuleStore 创建规则存储实例，cache 与 publisher 可为空
func NewRuleStore(db *gorm.DB, cache RuleSetCache, publisher models.EventPublisher) *RuleStore {
	return &RuleStore{
		db:        db,
		cache:     cache,
		publisher: publisher,
	}
}

// GetRuleSet 获取记录类型当前生效的规则集，不存在时返回空规则集而非错误
func (s *RuleStore) GetRuleSet(ctx context.Context, recordType string) (*models.RuleSet, error) {
	recordType = strings.TrimSpace(recordType)

	if s.cache != nil {
		if set, ok := s.cache.Get(ctx, recordType); ok {
			return set, nil
		}
	}

	var set *models.RuleSet
	// 规则集与字段规则在同一事务内读取，避免读到两次提交之间的混合结果
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.loadRuleSet(tx, recordType)
		if err != nil {
			return err
		}
		set = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, recordType, set)
	}
	return set, nil
}

// loadRuleSet 从数据库读取规则集，规则按位置排序
func (s *RuleStore) loadRuleSet(db *gorm.DB, recordType string) (*models.RuleSet, error) {
	var set models.RuleSet
	err := db.Where("record_type = ?", recordType).First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyRuleSet(recordType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询规则集失败: %w", err)
	}

	rules := []models.FieldRule{}
	if err := db.Where("rule_set_id = ?", set.ID).Order("position ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询字段规则失败: %w", err)
	}
	set.Rules = rules
	return &set, nil
}

// ListRuleSets 获取全部规则集
func (s *RuleStore) ListRuleSets(ctx context.Context) ([]models.RuleSet, error) {
	var sets []models.RuleSet
	err := s.db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("record_type ASC").
		Find(&sets).Error
	if err != nil {
		return nil, fmt.Errorf("查询规则集列表失败: %w", err)
	}
	return sets, nil
}

// ListRecordTypes 获取已配置规则集的记录类型
func (s *RuleStore) ListRecordTypes(ctx context.Context) ([]string, error) {
	var types []string
	if err := s.db.WithContext(ctx).Model(&models.RuleSet{}).Order("record_type ASC").Pluck("record_type", &types).Error; err != nil {
		return nil, fmt.Errorf("查询记录类型失败: %w", err)
	}
	return types, nil
}

// CreateRuleSet 为记录类型创建规则集，已存在时返回 DuplicateError 且不修改现有规则集
func (s *RuleStore) CreateRuleSet(ctx context.Context, recordType string, rules []FieldRuleInput) (*models.RuleSet, error) {
	recordType = strings.TrimSpace(recordType)
	if err := ValidateRules(recordType, rules); err != nil {
		metrics.RuleSetOperation("create", err)
		return nil, err
	}

	set := &models.RuleSet{RecordType: recordType}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RuleSet{}).Where("record_type = ?", recordType).Count(&count).Error; err != nil {
			return fmt.Errorf("检查规则集是否存在失败: %w", err)
		}
		if count > 0 {
			return &DuplicateError{RecordType: recordType}
		}

		if err := tx.Omit("Rules").Create(set).Error; err != nil {
			if isUniqueViolation(err) {
				return &DuplicateError{RecordType: recordType}
			}
			return fmt.Errorf("创建规则集失败: %w", err)
		}

		fieldRules := buildFieldRules(set.ID, rules)
		if len(fieldRules) > 0 {
			if err := tx.Create(&fieldRules).Error; err != nil {
				return fmt.Errorf("创建字段规则失败: %w", err)
			}
		}
		set.Rules = fieldRules
		return nil
	})
	metrics.RuleSetOperation("create", err)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, recordType, set.Generation)
	slog.Info("规则集已创建", "record_type", recordType, "rule_count", len(set.Rules))
	s.publish(ctx, &models.QualityEvent{
		Type:       models.EventRuleSetCreated,
		RecordType: recordType,
		Generation: set.Generation,
		Payload:    map[string]interface{}{"rule_count": len(set.Rules)},
	})
	return set, nil
}

// ReplaceRules 原子地删除规则集的全部字段规则并插入新规则
// 校验失败不做任何修改；事务内任一步骤失败整体回滚
func (s *RuleStore) ReplaceRules(ctx context.Context, recordType string, rules []FieldRuleInput) (*models.RuleSet, error) {
	recordType = strings.TrimSpace(recordType)
	if err := ValidateRules(recordType, rules); err != nil {
		metrics.RuleSetOperation("replace", err)
		return nil, err
	}

	var result *models.RuleSet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var set models.RuleSet
		// 行锁使同一记录类型的并发替换串行执行
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("record_type = ?", recordType).
			First(&set).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleSetNotFound
		}
		if err != nil {
			return fmt.Errorf("锁定规则集失败: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&models.RuleSet{}).Where("id = ?", set.ID).Updates(map[string]interface{}{
			"generation": gorm.Expr("generation + 1"),
			"updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("更新规则集版本失败: %w", err)
		}

		if err := tx.Where("rule_set_id = ?", set.ID).Delete(&models.FieldRule{}).Error; err != nil {
			return fmt.Errorf("删除字段规则失败: %w", err)
		}

		fieldRules := buildFieldRules(set.ID, rules)
		if len(fieldRules) > 0 {
			if err := tx.Create(&fieldRules).Error; err != nil {
				return fmt.Errorf("插入字段规则失败: %w", err)
			}
		}

		set.Generation++
		set.UpdatedAt = now
		set.Rules = fieldRules
		result = &set
		return nil
	})
	metrics.RuleSetOperation("replace", err)
	if err != nil {
		if !errors.Is(err, ErrRuleSetNotFound) {
			slog.Error("替换规则失败，已回滚", "record_type", recordType, "error", err)
		}
		return nil, err
	}

	s.invalidate(ctx, recordType, result.Generation)
	slog.Info("规则集已替换",
		"record_type", recordType,
		"generation", result.Generation,
		"rule_count", len(result.Rules))
	s.publish(ctx, &models.QualityEvent{
		Type:       models.EventRuleSetReplaced,
		RecordType: recordType,
		Generation: result.Generation,
		Payload:    map[string]interface{}{"rule_count": len(result.Rules)},
	})
	return result, nil
}

// DeleteRuleSet 删除规则集及其全部字段规则
func (s *RuleStore) DeleteRuleSet(ctx context.Context, recordType string) error {
	recordType = strings.TrimSpace(recordType)

	var deletedGeneration int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var set models.RuleSet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("record_type = ?", recordType).
			First(&set).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleSetNotFound
		}
		if err != nil {
			return fmt.Errorf("锁定规则集失败: %w", err)
		}

		if err := tx.Where("rule_set_id = ?", set.ID).Delete(&models.FieldRule{}).Error; err != nil {
			return fmt.Errorf("删除字段规则失败: %w", err)
		}
		if err := tx.Delete(&models.RuleSet{}, "id = ?", set.ID).Error; err != nil {
			return fmt.Errorf("删除规则集失败: %w", err)
		}
		deletedGeneration = set.Generation
		return nil
	})
	metrics.RuleSetOperation("delete", err)
	if err != nil {
		return err
	}

	// 删除后已读到旧规则集的回源结果不得再写入缓存
	s.invalidate(ctx, recordType, deletedGeneration+1)
	slog.Info("规则集已删除", "record_type", recordType)
	s.publish(ctx, &models.QualityEvent{
		Type:       models.EventRuleSetDeleted,
		RecordType: recordType,
	})
	return nil
}

// invalidate 写入失效标记，generation 之前的回源结果不再写入缓存
func (s *RuleStore) invalidate(ctx context.Context, recordType string, generation int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, recordType, generation)
	}
}

// publish 发布事件，失败只记录日志
func (s *RuleStore) publish(ctx context.Context, event *models.QualityEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now()
	err := s.publisher.Publish(ctx, event)
	metrics.EventsPublished.WithLabelValues(event.Type, publishResult(err)).Inc()
	if err != nil {
		slog.Warn("发布规则集事件失败", "type", event.Type, "record_type", event.RecordType, "error", err)
	}
}

func publishResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func emptyRuleSet(recordType string) *models.RuleSet {
	return &models.RuleSet{
		RecordType: recordType,
		Rules:      []models.FieldRule{},
	}
}
