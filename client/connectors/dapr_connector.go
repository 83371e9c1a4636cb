/*
 * @module client/connectors/dapr_connector
 * @description Dapr发布订阅事件发布器，通过sidecar将质量事件发布到pubsub组件
 * @architecture 适配器模式 - 封装Dapr客户端
 * @documentReference SPEC_FULL.md
 * @stateFlow 连接sidecar -> 发布事件(CloudEvents由sidecar封装) -> 关闭
 * @rules sidecar地址由 DAPR_GRPC_PORT 环境变量决定
 * @dependencies github.com/dapr/go-sdk/client
 * @refs client/connectors/publisher.go, main.go
 */
package connectors

import (
	"context"
	"fmt"
	"recordquality-service/service/config"
	"recordquality-service/service/models"

	dapr "github.com/dapr/go-sdk/client"
)

// daprClient Dapr发布接口，dapr.Client 实现该接口
type daprClient interface {
	PublishEvent(ctx context.Context, pubsubName, topicName string, data interface{}, opts ...dapr.PublishEventOption) error
	Close()
}

// DaprPublisher Dapr事件发布器
type DaprPublisher struct {
	client daprClient
	pubsub string
	topic  string
}

// NewDaprPublisher 连接Dapr sidecar并创建发布器
func NewDaprPublisher(ctx context.Context, cfg config.DaprConfig) (*DaprPublisher, error) {
	if cfg.PubSub == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("Dapr pubsub 与 topic 必须配置")
	}
	client, err := dapr.NewClient()
	if err != nil {
		return nil, fmt.Errorf("连接Dapr sidecar失败: %w", err)
	}
	return &DaprPublisher{client: client, pubsub: cfg.PubSub, topic: cfg.Topic}, nil
}

// Publish 发布事件
func (p *DaprPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	err = p.client.PublishEvent(ctx, p.pubsub, p.topic, data,
		dapr.PublishEventWithContentType("application/json"),
		dapr.PublishEventWithMetadata(map[string]string{"event_type": event.Type}),
	)
	if err != nil {
		return fmt.Errorf("Dapr发布事件失败: %w", err)
	}

	logPublished("dapr", p.topic, event)
	return nil
}

// Close 关闭客户端
func (p *DaprPublisher) Close() error {
	p.client.Close()
	return nil
}
