/*
 * @module client/connectors/publisher
 * @description 质量事件发布器工厂，按配置选择 Kafka、MQTT、Dapr 或空发布器
 * @architecture 适配器模式 - 封装第三方消息客户端，提供统一的事件发布接口
 * @documentReference SPEC_FULL.md
 * @stateFlow 读取事件配置 -> 建立连接 -> 发布事件 -> 关闭
 * @rules 发布失败只返回错误，由调用方决定是否忽略；消息体为事件的JSON表示
 * @dependencies encoding/json, service/config, service/models
 * @refs service/init.go, service/rulestore/store.go, service/record_scoring/scoring_service.go
 */
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"recordquality-service/service/config"
	"recordquality-service/service/models"
)

// NoopPublisher 未配置事件发布时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	return nil
}

// Close 关闭发布器
func (NoopPublisher) Close() error {
	return nil
}

// NewPublisher 按配置创建事件发布器
func NewPublisher(ctx context.Context, cfg config.EventsConfig) (models.EventPublisher, error) {
	switch cfg.Publisher {
	case "", "none":
		return NoopPublisher{}, nil
	case "kafka":
		publisher, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "mqtt":
		publisher, err := NewMQTTPublisher(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "dapr":
		publisher, err := NewDaprPublisher(ctx, cfg.Dapr)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("不支持的事件发布器: %s", cfg.Publisher)
	}
}

// encodeEvent 序列化事件
func encodeEvent(event *models.QualityEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	return data, nil
}

// eventKey 消息键，同一规则集或同一记录的事件进入同一分区
func eventKey(event *models.QualityEvent) string {
	if event.RecordID != "" {
		return event.RecordType + "/" + event.RecordID
	}
	return event.RecordType
}

func logPublished(transport, topic string, event *models.QualityEvent) {
	slog.Debug("事件已发布",
		"transport", transport,
		"topic", topic,
		"type", event.Type,
		"record_type", event.RecordType)
}
