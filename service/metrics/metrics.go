/*
 * @module service/metrics/metrics
 * @description 记录质量评分服务的Prometheus指标
 * @architecture 分层架构 - 监控层
 * @documentReference SPEC_FULL.md
 * @stateFlow 业务操作 -> 指标累加 -> /metrics 暴露
 * @rules 标签只使用低基数字段(记录类型、状态、结果)
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/rulestore/, service/record_scoring/
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "record_quality"

var (
	// RuleSetOperations 规则集写操作计数
	RuleSetOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_set_operations_total",
		Help:      "规则集写操作次数，按操作与结果划分",
	}, []string{"operation", "result"})

	// RecordsScored 记录评分计数
	RecordsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_scored_total",
		Help:      "完成评分的记录数，按记录类型与状态划分",
	}, []string{"record_type", "status"})

	// ScoreDistribution 分数分布
	ScoreDistribution = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "score_percentage",
		Help:      "记录质量分数分布",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}, []string{"record_type"})

	// ScoringSkipped 因规则集读取失败未评分的记录数
	ScoringSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scoring_skipped_total",
		Help:      "规则集不可用导致跳过评分的记录数",
	}, []string{"record_type"})

	// RescoreRuns 定时重评分执行次数
	RescoreRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rescore_runs_total",
		Help:      "定时重评分任务执行次数",
	}, []string{"result"})

	// EventsPublished 事件发布计数
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "发布的质量事件数",
	}, []string{"type", "result"})
)

// ObserveScore 记录一次评分结果
func ObserveScore(recordType, status string, percentage int) {
	RecordsScored.WithLabelValues(recordType, status).Inc()
	ScoreDistribution.WithLabelValues(recordType).Observe(float64(percentage))
}

// RuleSetOperation 记录一次规则集写操作
func RuleSetOperation(operation string, err error) {
	RuleSetOperations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}
