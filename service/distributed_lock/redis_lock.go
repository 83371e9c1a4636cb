/*
 * @module service/distributed_lock/redis_lock
 * @description 分布式锁，保证多实例部署时定时重评分任务同一时刻只有一个实例执行
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference SPEC_FULL.md
 * @stateFlow 获取锁 -> 执行任务(可选续期) -> 释放锁/自动过期
 * @rules Redis实现使用SET NX，只有持有者能释放或续期；未配置Redis时退化为进程内锁
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/init.go, service/record_scoring/rescore_scheduler.go
 */

package distributed_lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrLockNotHeld 锁不存在或已被其他实例持有
var ErrLockNotHeld = errors.New("锁不存在或已被其他实例持有")

// DistributedLock 分布式锁接口
type DistributedLock interface {
	// TryLock 尝试获取锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放锁
	Unlock(ctx context.Context, key string) error
	// Refresh 刷新锁的过期时间
	Refresh(ctx context.Context, key string, ttl time.Duration) error
}

const (
	unlockScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`
	refreshScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
)

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client     *redis.Client
	namespace  string
	instanceID string // 锁持有者标识
}

// NewRedisLock 基于已有Redis客户端创建分布式锁
func NewRedisLock(client *redis.Client, namespace string) *RedisLock {
	hostname, _ := os.Hostname()
	return &RedisLock{
		client:     client,
		namespace:  namespace,
		instanceID: fmt.Sprintf("%s:%d", hostname, os.Getpid()),
	}
}

func (r *RedisLock) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", r.namespace, key)
}

// TryLock 尝试获取锁，只有当key不存在时才会成功
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.lockKey(key), r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}
	if ok {
		slog.Debug("分布式锁: 成功获取锁", "key", key, "ttl", ttl, "instance", r.instanceID)
	}
	return ok, nil
}

// Unlock 释放锁，只有持有者才能释放
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	result, err := r.client.Eval(ctx, unlockScript, []string{r.lockKey(key)}, r.instanceID).Int64()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	if result != 1 {
		slog.Warn("分布式锁: 锁不存在或已被其他实例持有", "key", key, "instance", r.instanceID)
	}
	return nil
}

// Refresh 刷新锁的过期时间
func (r *RedisLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	result, err := r.client.Eval(ctx, refreshScript, []string{r.lockKey(key)}, r.instanceID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("刷新锁失败: %w", err)
	}
	if result != 1 {
		return ErrLockNotHeld
	}
	return nil
}

// LocalLock 进程内锁，单实例部署或未配置Redis时使用
type LocalLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewLocalLock 创建进程内锁
func NewLocalLock() *LocalLock {
	return &LocalLock{expires: make(map[string]time.Time)}
}

// TryLock 尝试获取锁
func (l *LocalLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.expires[key]; ok && time.Now().Before(until) {
		return false, nil
	}
	l.expires[key] = time.Now().Add(ttl)
	return true, nil
}

// Unlock 释放锁
func (l *LocalLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, key)
	return nil
}

// Refresh 刷新锁的过期时间
func (l *LocalLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.expires[key]; !ok {
		return ErrLockNotHeld
	}
	l.expires[key] = time.Now().Add(ttl)
	return nil
}

// LockExecutor 带锁执行器
type LockExecutor struct {
	lock DistributedLock
}

// NewLockExecutor 创建带锁执行器
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock}
}

// ExecuteWithLock 在锁保护下执行函数，锁被占用时跳过并返回 false
func (e *LockExecutor) ExecuteWithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if !locked {
		slog.Debug("分布式锁: 锁已被其他实例持有，跳过执行", "key", key)
		return false, nil
	}

	// 续期间隔取TTL的三分之一
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := e.lock.Refresh(runCtx, key, ttl); err != nil {
					slog.Error("分布式锁: 续期失败", "key", key, "error", err)
				}
			}
		}
	}()

	defer func() {
		// 释放锁不受任务上下文取消影响
		if err := e.lock.Unlock(context.Background(), key); err != nil {
			slog.Error("分布式锁: 释放锁失败", "key", key, "error", err)
		}
	}()

	return true, fn(runCtx)
}
