/*
 * @module service/models/rule_set
 * @description 记录质量评分规则模型，包含规则集(每个记录类型一份)与字段规则
 * @architecture 分层架构 - 数据模型层
 * @documentReference SPEC_FULL.md
 * @stateFlow 创建规则集 -> 整体替换字段规则(删除+插入) -> 评分读取
 * @rules 每个记录类型最多一个规则集；字段规则只属于一个规则集，随替换整体重建
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/rulestore/, service/scoring/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleSet 规则集模型，按记录类型唯一
type RuleSet struct {
	ID         string      `gorm:"type:varchar(50);primaryKey" json:"id"`
	RecordType string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_rule_sets_record_type" json:"record_type"`
	Generation int64       `gorm:"not null;default:1" json:"generation"` // 每次整体替换后递增
	Rules      []FieldRule `gorm:"foreignKey:RuleSetID;constraint:OnDelete:CASCADE" json:"rules"`
	CreatedAt  time.Time   `json:"created_at"`
	CreatedBy  string      `gorm:"type:varchar(100);not null;default:'system'" json:"created_by"`
	UpdatedAt  time.Time   `json:"updated_at"`
	UpdatedBy  string      `gorm:"type:varchar(100);not null;default:'system'" json:"updated_by"`
}

// TableName 指定表名
func (RuleSet) TableName() string {
	return "rule_sets"
}

// BeforeCreate 创建前钩子
func (r *RuleSet) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Generation == 0 {
		r.Generation = 1
	}
	if r.CreatedBy == "" {
		r.CreatedBy = "system"
	}
	if r.UpdatedBy == "" {
		r.UpdatedBy = "system"
	}
	return nil
}

// IsConfigured 是否为已持久化的规则集
func (r *RuleSet) IsConfigured() bool {
	return r != nil && r.ID != ""
}

// FieldRule 字段规则模型
type FieldRule struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	RuleSetID    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_field_rules_set_field;index" json:"rule_set_id"`
	FieldName    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_field_rules_set_field" json:"field_name"`
	DisplayLabel string    `gorm:"type:varchar(255)" json:"display_label"`
	Weight       int       `gorm:"not null;default:1" json:"weight"` // 1-5
	Required     bool      `gorm:"not null;default:false" json:"required"`
	Position     int       `gorm:"not null;default:0" json:"position"` // 规则在集合中的顺序
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (FieldRule) TableName() string {
	return "field_rules"
}

// BeforeCreate 创建前钩子
func (f *FieldRule) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
