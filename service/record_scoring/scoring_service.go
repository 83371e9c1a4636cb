/*
 * @module service/record_scoring/scoring_service
 * @description 记录保存生命周期中的评分钩子，按记录类型读取规则集并为一批记录计算质量分数
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 记录分组 -> 每个类型读取一次规则集 -> 引擎评分 -> 写入分数与时间戳 -> 指标 -> 持久化成功后发布事件
 * @rules 评分失败绝不导致保存失败；同一批次内同类型记录使用同一份规则集快照
 * @dependencies service/rulestore, service/scoring, service/catalog, service/metrics
 * @refs service/record_scoring/record_service.go, service/record_scoring/rescore_scheduler.go
 */

package record_scoring

import (
	"context"
	"log/slog"
	"recordquality-service/service/catalog"
	"recordquality-service/service/metrics"
	"recordquality-service/service/models"
	"recordquality-service/service/scoring"
	"strings"
	"time"
)

// Record 可评分记录
type Record interface {
	GetRecordType() string
	GetFieldValues() map[string]interface{}
	SetScore(score int, at time.Time)
}

// identified 带有ID的记录，用于事件关联
type identified interface {
	GetID() string
}

// RuleSetReader 规则集读取接口
type RuleSetReader interface {
	GetRuleSet(ctx context.Context, recordType string) (*models.RuleSet, error)
}

// ScoringSummary 批量评分统计
type ScoringSummary struct {
	Scored  int `json:"scored"`
	Skipped int `json:"skipped"`
}

// ScoringService 记录评分服务
type ScoringService struct {
	rules     RuleSetReader
	engine    *scoring.Engine
	catalog   catalog.Catalog
	publisher models.EventPublisher
	now       func() time.Time
}

// NewScoringService 创建记录评分服务，catalog 与 publisher 可为空
func NewScoringService(rules RuleSetReader, engine *scoring.Engine, cat catalog.Catalog, publisher models.EventPublisher) *ScoringService {
	if cat == nil {
		cat = catalog.EmptyCatalog{}
	}
	return &ScoringService{
		rules:     rules,
		engine:    engine,
		catalog:   cat,
		publisher: publisher,
		now:       time.Now,
	}
}

// ScoreRecords 为一批记录评分，每个记录类型只读取一次规则集
// 返回的评分事件由调用方在持久化成功后通过 PublishEvents 发布
func (s *ScoringService) ScoreRecords(ctx context.Context, records []Record) (ScoringSummary, []*models.QualityEvent) {
	var summary ScoringSummary
	var events []*models.QualityEvent

	groups := make(map[string][]Record)
	var order []string
	for _, record := range records {
		if record == nil {
			continue
		}
		recordType := strings.TrimSpace(record.GetRecordType())
		if _, ok := groups[recordType]; !ok {
			order = append(order, recordType)
		}
		groups[recordType] = append(groups[recordType], record)
	}

	for _, recordType := range order {
		group := groups[recordType]
		set, err := s.rules.GetRuleSet(ctx, recordType)
		if err != nil {
			// 规则集不可用时记录保持未评分，保存照常进行
			slog.Error("读取规则集失败，跳过评分",
				"record_type", recordType,
				"records", len(group),
				"error", err)
			metrics.ScoringSkipped.WithLabelValues(recordType).Add(float64(len(group)))
			summary.Skipped += len(group)
			continue
		}
		scored := s.ScoreAgainst(ctx, set, group)
		summary.Scored += len(scored)
		events = append(events, scored...)
	}

	return summary, events
}

// ScoreAgainst 使用给定规则集快照为同类型记录评分，返回待发布的评分事件
func (s *ScoringService) ScoreAgainst(ctx context.Context, set *models.RuleSet, records []Record) []*models.QualityEvent {
	rules := s.BuildRules(set)
	at := s.now()

	events := make([]*models.QualityEvent, 0, len(records))
	for _, record := range records {
		result := s.engine.Score(rules, record.GetFieldValues())
		record.SetScore(result.Percentage, at)
		metrics.ObserveScore(set.RecordType, string(result.Status), result.Percentage)

		event := &models.QualityEvent{
			Type:       models.EventRecordScored,
			RecordType: set.RecordType,
			Generation: set.Generation,
			Score:      &result.Percentage,
			Status:     string(result.Status),
			OccurredAt: at,
		}
		if rec, ok := record.(identified); ok {
			event.RecordID = rec.GetID()
		}
		events = append(events, event)
	}

	slog.Debug("记录评分完成",
		"record_type", set.RecordType,
		"generation", set.Generation,
		"records", len(records))
	return events
}

// PublishEvents 发布评分事件，发布器支持批量时一次投递整批；失败只记录日志
func (s *ScoringService) PublishEvents(ctx context.Context, events []*models.QualityEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}

	if batcher, ok := s.publisher.(models.BatchEventPublisher); ok {
		err := batcher.PublishBatch(ctx, events)
		result := "success"
		if err != nil {
			result = "failure"
			slog.Warn("批量发布评分事件失败", "events", len(events), "error", err)
		}
		metrics.EventsPublished.WithLabelValues(models.EventRecordScored, result).Add(float64(len(events)))
		return
	}

	for _, event := range events {
		s.publish(ctx, event)
	}
}

// Evaluate 按记录类型当前规则集对字段值进行即时评分
func (s *ScoringService) Evaluate(ctx context.Context, recordType string, values map[string]interface{}) (scoring.ScoreResult, error) {
	set, err := s.rules.GetRuleSet(ctx, strings.TrimSpace(recordType))
	if err != nil {
		return scoring.ScoreResult{}, err
	}
	return s.engine.Score(s.BuildRules(set), values), nil
}

// BuildRules 将持久化的字段规则转换为引擎规则
// 标签优先级：规则显式标签 > 字段目录标签 > 引擎推导
func (s *ScoringService) BuildRules(set *models.RuleSet) []scoring.Rule {
	if set == nil {
		return nil
	}
	rules := make([]scoring.Rule, 0, len(set.Rules))
	for _, fr := range set.Rules {
		label := fr.DisplayLabel
		if strings.TrimSpace(label) == "" {
			if catalogLabel, ok := s.catalog.Label(set.RecordType, fr.FieldName); ok {
				label = catalogLabel
			}
		}
		rules = append(rules, scoring.Rule{
			FieldName: fr.FieldName,
			Label:     label,
			Weight:    fr.Weight,
			Required:  fr.Required,
		})
	}
	return rules
}

func (s *ScoringService) publish(ctx context.Context, event *models.QualityEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, event)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, "failure").Inc()
		slog.Warn("发布评分事件失败", "record_type", event.RecordType, "record_id", event.RecordID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event.Type, "success").Inc()
}
