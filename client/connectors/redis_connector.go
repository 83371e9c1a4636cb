/*
 * @module client/connectors/redis_connector
 * @description Redis客户端创建，供规则集共享缓存与分布式锁使用
 * @architecture 适配器模式 - 封装第三方Redis客户端
 * @documentReference SPEC_FULL.md
 * @stateFlow 读取配置 -> 创建连接池 -> Ping 校验
 * @rules 启动时连接失败直接返回错误，不静默退化
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/init.go, service/rulestore/cache.go, service/distributed_lock/redis_lock.go
 */
package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"recordquality-service/service/config"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient 创建并校验Redis客户端
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	slog.Info("Redis连接成功", "addr", cfg.Addr(), "db", cfg.DB)
	return client, nil
}
