/*
 * @module service/rulestore/cache
 * @description 规则集读缓存，支持进程内缓存与Redis共享缓存
 * @architecture 分层架构 - 缓存层
 * @documentReference SPEC_FULL.md
 * @stateFlow 读取 -> 命中返回/未命中回源数据库 -> 按版本条件写入缓存；写操作提交后写入失效标记
 * @rules 缓存只保存完整的规则集快照；失效标记记录最低可接受版本，低于该版本的回源结果不会写入
 * @dependencies github.com/patrickmn/go-cache, github.com/go-redis/redis/v8
 * @refs service/rulestore/store.go, service/distributed_lock/redis_lock.go
 */

package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"recordquality-service/service/models"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
)

// RuleSetCache 规则集缓存接口
type RuleSetCache interface {
	// Get 获取缓存的规则集，失效标记视为未命中
	Get(ctx context.Context, recordType string) (*models.RuleSet, bool)
	// Set 写入规则集，版本低于已有条目时放弃写入
	Set(ctx context.Context, recordType string, set *models.RuleSet)
	// Invalidate 以失效标记替换缓存条目，generation 为此后允许写入的最低版本
	Invalidate(ctx context.Context, recordType string, generation int64)
}

// cacheEntry 缓存条目，RuleSet 为空表示失效标记
type cacheEntry struct {
	Generation int64           `json:"generation"`
	RuleSet    *models.RuleSet `json:"rule_set,omitempty"`
}

// MemoryRuleSetCache 进程内规则集缓存
type MemoryRuleSetCache struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryRuleSetCache 创建进程内缓存
func NewMemoryRuleSetCache(ttl time.Duration) *MemoryRuleSetCache {
	return &MemoryRuleSetCache{
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Get 获取缓存的规则集
func (c *MemoryRuleSetCache) Get(ctx context.Context, recordType string) (*models.RuleSet, bool) {
	value, found := c.cache.Get(recordType)
	if !found {
		return nil, false
	}
	entry, ok := value.(*cacheEntry)
	if !ok || entry.RuleSet == nil {
		return nil, false
	}
	return copyRuleSet(entry.RuleSet), true
}

// Set 写入规则集
func (c *MemoryRuleSetCache) Set(ctx context.Context, recordType string, set *models.RuleSet) {
	if set == nil {
		return
	}
	c.store(recordType, &cacheEntry{Generation: set.Generation, RuleSet: copyRuleSet(set)})
}

// Invalidate 失效指定记录类型
func (c *MemoryRuleSetCache) Invalidate(ctx context.Context, recordType string, generation int64) {
	c.store(recordType, &cacheEntry{Generation: generation})
}

// store 比较版本后写入，与 redis 脚本语义一致
func (c *MemoryRuleSetCache) store(recordType string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, found := c.cache.Get(recordType); found {
		if current, ok := value.(*cacheEntry); ok && current.Generation > entry.Generation {
			return
		}
	}
	c.cache.SetDefault(recordType, entry)
}

// storeScript 仅当已有条目版本不高于新条目时写入
const storeScript = `
	local current = redis.call("get", KEYS[1])
	if current then
		local ok, entry = pcall(cjson.decode, current)
		if ok and type(entry) == "table" and tonumber(entry.generation) and tonumber(entry.generation) > tonumber(ARGV[2]) then
			return 0
		end
	end
	if tonumber(ARGV[3]) > 0 then
		redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[3])
	else
		redis.call("set", KEYS[1], ARGV[1])
	end
	return 1
`

// RedisRuleSetCache Redis共享规则集缓存，多实例部署时使用
type RedisRuleSetCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisRuleSetCache 创建Redis规则集缓存
func NewRedisRuleSetCache(client *redis.Client, ttl time.Duration) *RedisRuleSetCache {
	return &RedisRuleSetCache{
		client: client,
		ttl:    ttl,
		prefix: "record_quality:rule_set:",
	}
}

func (c *RedisRuleSetCache) key(recordType string) string {
	return c.prefix + recordType
}

// Get 获取缓存的规则集
func (c *RedisRuleSetCache) Get(ctx context.Context, recordType string) (*models.RuleSet, bool) {
	data, err := c.client.Get(ctx, c.key(recordType)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("读取规则集缓存失败", "record_type", recordType, "error", err)
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Warn("解析规则集缓存失败", "record_type", recordType, "error", err)
		return nil, false
	}
	if entry.RuleSet == nil {
		return nil, false
	}
	if entry.RuleSet.Rules == nil {
		entry.RuleSet.Rules = []models.FieldRule{}
	}
	return entry.RuleSet, true
}

// Set 写入规则集
func (c *RedisRuleSetCache) Set(ctx context.Context, recordType string, set *models.RuleSet) {
	if set == nil {
		return
	}
	if err := c.store(ctx, recordType, &cacheEntry{Generation: set.Generation, RuleSet: set}); err != nil {
		slog.Warn("写入规则集缓存失败", "record_type", recordType, "error", err)
	}
}

// Invalidate 失效指定记录类型
func (c *RedisRuleSetCache) Invalidate(ctx context.Context, recordType string, generation int64) {
	if err := c.store(ctx, recordType, &cacheEntry{Generation: generation}); err != nil {
		slog.Error("失效规则集缓存失败", "record_type", recordType, "error", err)
	}
}

func (c *RedisRuleSetCache) store(ctx context.Context, recordType string, entry *cacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Eval(ctx, storeScript, []string{c.key(recordType)},
		string(data), entry.Generation, c.ttl.Milliseconds()).Err()
}

// copyRuleSet 复制规则集，避免调用方修改缓存内容
func copyRuleSet(set *models.RuleSet) *models.RuleSet {
	if set == nil {
		return nil
	}
	clone := *set
	clone.Rules = make([]models.FieldRule, len(set.Rules))
	copy(clone.Rules, set.Rules)
	return &clone
}
