/*
 * @module service/models/events
 * @description 评分服务对外发布的事件定义
 * @architecture 分层架构 - 数据模型层
 * @documentReference SPEC_FULL.md
 * @stateFlow 规则集替换/记录评分 -> 构造事件 -> 发布器投递
 * @rules 事件只携带标识与结果，不携带记录字段值
 * @dependencies time
 * @refs client/connectors/
 */

package models

import (
	"context"
	"time"
)

const (
	EventRuleSetCreated  = "rule_set.created"
	EventRuleSetReplaced = "rule_set.replaced"
	EventRuleSetDeleted  = "rule_set.deleted"
	EventRecordScored    = "record.scored"
)

// QualityEvent 质量评分事件
type QualityEvent struct {
	Type       string                 `json:"type"`
	RecordType string                 `json:"record_type"`
	RecordID   string                 `json:"record_id,omitempty"`
	Generation int64                  `json:"generation,omitempty"`
	Score      *int                   `json:"score,omitempty"`
	Status     string                 `json:"status,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventPublisher 事件发布器接口
type EventPublisher interface {
	Publish(ctx context.Context, event *QualityEvent) error
	Close() error
}

// BatchEventPublisher 支持一次投递多条事件的发布器
type BatchEventPublisher interface {
	PublishBatch(ctx context.Context, events []*QualityEvent) error
}
