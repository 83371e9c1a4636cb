/*
 * @module service/record_scoring/rescore_scheduler
 * @description 定时重评分调度器，规则集变更后按最新规则批量刷新已保存记录的分数
 * @architecture 分层架构 - 调度层
 * @documentReference SPEC_FULL.md
 * @stateFlow Cron触发 -> 获取分布式锁 -> 按记录类型并发 -> 每类型读取一次规则集 -> 分批评分写回 -> 释放锁
 * @rules 多实例部署时同一时刻只有一个实例执行；单个类型失败不影响其他类型；批次读取后被重新保存的记录不写回
 * @dependencies github.com/robfig/cron/v3, golang.org/x/sync/errgroup, service/distributed_lock
 * @refs service/init.go, api/controllers/record_controller.go
 */

package record_scoring

import (
	"context"
	"fmt"
	"log/slog"
	"recordquality-service/service/distributed_lock"
	"recordquality-service/service/metrics"
	"recordquality-service/service/models"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const rescoreLockKey = "rescore"

// RescoreConfig 重评分配置
type RescoreConfig struct {
	CronExpression string        // 秒级Cron表达式
	BatchSize      int           // 每批读取记录数
	Concurrency    int           // 并发处理的记录类型数
	LockTTL        time.Duration // 分布式锁过期时间
}

// DefaultRescoreConfig 默认配置：每小时整点执行
func DefaultRescoreConfig() RescoreConfig {
	return RescoreConfig{
		CronExpression: "0 0 * * * *",
		BatchSize:      200,
		Concurrency:    4,
		LockTTL:        10 * time.Minute,
	}
}

// RescoreReport 一次重评分的结果
type RescoreReport struct {
	Executed    bool           `json:"executed"` // 锁被其他实例持有时为 false
	RecordTypes int            `json:"record_types"`
	Records     int            `json:"records"`
	PerType     map[string]int `json:"per_type"`
	DurationMs  int64          `json:"duration_ms"`
}

// RescoreScheduler 定时重评分调度器
type RescoreScheduler struct {
	records  *RecordService
	scorer   *ScoringService
	executor *distributed_lock.LockExecutor
	config   RescoreConfig
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
}

// NewRescoreScheduler 创建重评分调度器
func NewRescoreScheduler(records *RecordService, scorer *ScoringService, lock distributed_lock.DistributedLock, config RescoreConfig) *RescoreScheduler {
	defaults := DefaultRescoreConfig()
	if config.CronExpression == "" {
		config.CronExpression = defaults.CronExpression
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if lock == nil {
		lock = distributed_lock.NewLocalLock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RescoreScheduler{
		records:  records,
		scorer:   scorer,
		executor: distributed_lock.NewLockExecutor(lock),
		config:   config,
		cron:     cron.New(cron.WithSeconds()),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动调度器
func (s *RescoreScheduler) Start() error {
	if s.started {
		return fmt.Errorf("重评分调度器已经启动")
	}

	_, err := s.cron.AddFunc(s.config.CronExpression, func() {
		if _, err := s.RescoreAll(s.ctx); err != nil {
			slog.Error("定时重评分失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加重评分任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("重评分调度器已启动", "cron", s.config.CronExpression)
	return nil
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *RescoreScheduler) Stop() {
	if !s.started {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	slog.Info("重评分调度器已停止")
}

// RescoreAll 对全部已保存记录按当前规则集重新评分
func (s *RescoreScheduler) RescoreAll(ctx context.Context) (*RescoreReport, error) {
	start := time.Now()
	report := &RescoreReport{PerType: map[string]int{}}

	executed, err := s.executor.ExecuteWithLock(ctx, rescoreLockKey, s.config.LockTTL, func(ctx context.Context) error {
		recordTypes, err := s.records.ListRecordTypes(ctx)
		if err != nil {
			return err
		}
		report.RecordTypes = len(recordTypes)

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.config.Concurrency)
		for _, recordType := range recordTypes {
			recordType := recordType
			g.Go(func() error {
				count, err := s.rescoreType(gctx, recordType)
				if err != nil {
					slog.Error("记录类型重评分失败", "record_type", recordType, "error", err)
					return err
				}
				mu.Lock()
				report.PerType[recordType] = count
				report.Records += count
				mu.Unlock()
				return nil
			})
		}
		return g.Wait()
	})
	report.Executed = executed
	report.DurationMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		metrics.RescoreRuns.WithLabelValues("failure").Inc()
		return report, fmt.Errorf("重评分失败: %w", err)
	case !executed:
		metrics.RescoreRuns.WithLabelValues("skipped").Inc()
		slog.Info("重评分已由其他实例执行，跳过")
	default:
		metrics.RescoreRuns.WithLabelValues("success").Inc()
		slog.Info("重评分完成",
			"record_types", report.RecordTypes,
			"records", report.Records,
			"duration_ms", report.DurationMs)
	}
	return report, nil
}

// rescoreType 对单个记录类型分批重评分，整个过程只读取一次规则集
func (s *RescoreScheduler) rescoreType(ctx context.Context, recordType string) (int, error) {
	set, err := s.scorer.rules.GetRuleSet(ctx, recordType)
	if err != nil {
		return 0, fmt.Errorf("读取规则集失败: %w", err)
	}

	total := 0
	lastID := ""
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batch, err := s.records.nextBatch(ctx, recordType, lastID, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		scorable := make([]Record, len(batch))
		for i := range batch {
			scorable[i] = &batch[i]
		}
		events := s.scorer.ScoreAgainst(ctx, set, scorable)

		applied, err := s.records.updateScores(ctx, batch)
		if err != nil {
			return total, err
		}
		total += len(applied)
		s.scorer.PublishEvents(ctx, appliedEvents(events, applied))
		lastID = batch[len(batch)-1].ID

		if len(batch) < s.config.BatchSize {
			return total, nil
		}
	}
}

// appliedEvents 只保留分数已写回的记录对应的事件
func appliedEvents(events []*models.QualityEvent, applied map[string]bool) []*models.QualityEvent {
	kept := events[:0]
	for _, event := range events {
		if applied[event.RecordID] {
			kept = append(kept, event)
		}
	}
	return kept
}
