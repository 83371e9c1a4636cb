/*
 * @module service/models/monitored_record
 * @description 被监控记录模型，保存记录字段值及最近一次质量评分
 * @architecture 分层架构 - 数据模型层
 * @documentReference SPEC_FULL.md
 * @stateFlow 记录保存 -> 评分钩子写入分数与时间戳 -> 持久化
 * @rules 分数由评分服务写入，记录保存不因评分失败而失败
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/record_scoring/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonitoredRecord 被监控记录模型
type MonitoredRecord struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	RecordType     string     `gorm:"type:varchar(100);not null;index" json:"record_type"`
	Fields         JSONB      `gorm:"type:jsonb" json:"fields"`
	Score          *int       `json:"score"`           // 0-100，未评分时为空
	ScoreTimestamp *time.Time `json:"score_timestamp"` // 最近一次评分时间
	Revision       int64      `gorm:"not null;default:1" json:"-"` // 每次保存递增，重评分仅在未被改写时写回
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `gorm:"type:varchar(100);not null;default:'system'" json:"created_by"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UpdatedBy      string     `gorm:"type:varchar(100);not null;default:'system'" json:"updated_by"`
}

// TableName 指定表名
func (MonitoredRecord) TableName() string {
	return "monitored_records"
}

// BeforeCreate 创建前钩子
func (m *MonitoredRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedBy == "" {
		m.CreatedBy = "system"
	}
	if m.UpdatedBy == "" {
		m.UpdatedBy = "system"
	}
	if m.Revision == 0 {
		m.Revision = 1
	}
	return nil
}

// GetID 记录ID
func (m *MonitoredRecord) GetID() string {
	return m.ID
}

// GetRecordType 记录类型
func (m *MonitoredRecord) GetRecordType() string {
	return m.RecordType
}

// GetFieldValues 字段值
func (m *MonitoredRecord) GetFieldValues() map[string]interface{} {
	return m.Fields
}

// SetScore 写入评分结果
func (m *MonitoredRecord) SetScore(score int, at time.Time) {
	m.Score = &score
	m.ScoreTimestamp = &at
}
