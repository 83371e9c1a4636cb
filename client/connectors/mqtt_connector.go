/*
 * @module client/connectors/mqtt_connector
 * @description MQTT事件发布器，将质量事件发布到 <topic>/<事件类型>
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的接口
 * @documentReference SPEC_FULL.md
 * @stateFlow 连接broker -> 序列化事件 -> 发布并等待确认 -> 断开
 * @rules 支持自动重连与QoS控制；发布等待不超过上下文截止时间
 * @dependencies github.com/eclipse/paho.mqtt.golang
 * @refs client/connectors/publisher.go
 */
package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"recordquality-service/service/config"
	"recordquality-service/service/models"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// mqttClient MQTT发布接口，mqtt.Client 实现该接口
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher MQTT事件发布器
type MQTTPublisher struct {
	client mqttClient
	topic  string
	qos    byte
}

// NewMQTTPublisher 连接broker并创建发布器
func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker 未配置")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		slog.Info("MQTT已连接", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT连接断开", "broker", cfg.Broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	return newMQTTPublisher(client, cfg.Topic, byte(cfg.QoS)), nil
}

func newMQTTPublisher(client mqttClient, topic string, qos byte) *MQTTPublisher {
	if qos > 2 {
		qos = 1
	}
	return &MQTTPublisher{client: client, topic: topic, qos: qos}
}

// Publish 发布事件
func (p *MQTTPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	topic := p.topic + "/" + event.Type
	token := p.client.Publish(topic, p.qos, false, payload)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("MQTT发布超时: %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT发布失败: %w", err)
	}

	logPublished("mqtt", topic, event)
	return nil
}

// Close 断开连接，等待250ms让消息发送完成
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
