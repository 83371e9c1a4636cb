/*
 * @module client/connectors/kafka_connector
 * @description Kafka事件发布器，将质量事件写入配置的topic
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的接口
 * @documentReference SPEC_FULL.md
 * @stateFlow 创建Writer -> 序列化事件 -> 单次写入整批消息 -> 关闭
 * @rules 事件类型写入消息头；写入超时由调用方上下文控制
 * @dependencies github.com/segmentio/kafka-go
 * @refs client/connectors/publisher.go
 */
package connectors

import (
	"context"
	"fmt"
	"recordquality-service/service/config"
	"recordquality-service/service/models"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter Kafka写入接口，*kafka.Writer 实现该接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher Kafka事件发布器
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher 创建Kafka事件发布器
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("Kafka brokers 未配置")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("Kafka topic 未配置")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}, nil
}

// Publish 发布事件
func (p *KafkaPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	return p.PublishBatch(ctx, []*models.QualityEvent{event})
}

// PublishBatch 一次写入多条事件
func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*models.QualityEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := encodeEvent(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(eventKey(event)),
			Value: value,
			Time:  event.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.Type)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("发送Kafka消息失败: %w", err)
	}

	for _, event := range events {
		logPublished("kafka", p.topic, event)
	}
	return nil
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
