/*
 * @module service/config/config
 * @description 应用配置，按 默认值 -> 配置文件 -> 环境变量 的顺序加载
 * @architecture 分层架构 - 基础设施层
 * @documentReference SPEC_FULL.md
 * @stateFlow 设置默认值 -> 读取CONFIG_FILE(可选) -> RQS_前缀环境变量覆盖 -> 解码为结构体 -> 校验
 * @rules 环境变量优先级最高；未知的数据库驱动与事件发布器类型在启动时拒绝
 * @dependencies github.com/spf13/viper
 * @refs service/init.go, main.go
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "RQS"

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Label    LabelConfig    `mapstructure:"label"`
	Rescore  RescoreConfig  `mapstructure:"rescore"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BaseContext string `mapstructure:"base_context"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | pq | sqlite
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Schema   string `mapstructure:"schema"`
}

// ConnectionString 数据库连接串，显式配置的DSN优先
func (c DatabaseConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return c.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Schema)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr Redis地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig 规则集缓存配置
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// CatalogConfig 字段目录配置
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// LabelConfig 字段显示名称推导配置
type LabelConfig struct {
	CustomSuffix string `mapstructure:"custom_suffix"`
	IDSuffix     string `mapstructure:"id_suffix"`
}

// RescoreConfig 定时重评分配置
type RescoreConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Cron        string `mapstructure:"cron"`
	BatchSize   int    `mapstructure:"batch_size"`
	Concurrency int    `mapstructure:"concurrency"`
}

// EventsConfig 事件发布配置
type EventsConfig struct {
	Publisher string      `mapstructure:"publisher"` // none | kafka | mqtt | dapr
	Kafka     KafkaConfig `mapstructure:"kafka"`
	MQTT      MQTTConfig  `mapstructure:"mqtt"`
	Dapr      DaprConfig  `mapstructure:"dapr"`
}

// KafkaConfig Kafka发布配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MQTTConfig MQTT发布配置
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos"`
}

// DaprConfig Dapr发布订阅配置
type DaprConfig struct {
	PubSub string `mapstructure:"pubsub"`
	Topic  string `mapstructure:"topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_context", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("catalog.file", "")
	v.SetDefault("label.custom_suffix", "__c")
	v.SetDefault("label.id_suffix", "Id")

	v.SetDefault("rescore.enabled", true)
	v.SetDefault("rescore.cron", "0 0 * * * *")
	v.SetDefault("rescore.batch_size", 200)
	v.SetDefault("rescore.concurrency", 4)

	v.SetDefault("events.publisher", "none")
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "record-quality")
	v.SetDefault("events.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("events.mqtt.topic", "record-quality/events")
	v.SetDefault("events.mqtt.client_id", "record-quality-service")
	v.SetDefault("events.mqtt.username", "")
	v.SetDefault("events.mqtt.password", "")
	v.SetDefault("events.mqtt.qos", 1)
	v.SetDefault("events.dapr.pubsub", "pubsub")
	v.SetDefault("events.dapr.topic", "record-quality")
}

// Load 加载配置，configFile 为空时读取 CONFIG_FILE 环境变量
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pq", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Events.Publisher {
	case "", "none", "kafka", "mqtt", "dapr":
	default:
		return fmt.Errorf("不支持的事件发布器: %s", c.Events.Publisher)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("缓存TTL不能为负数")
	}
	if c.Rescore.BatchSize < 0 || c.Rescore.Concurrency < 0 {
		return fmt.Errorf("重评分批量与并发数不能为负数")
	}
	return nil
}
