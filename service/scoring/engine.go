/*
 * @module service/scoring/engine
 * @description 加权完整度评分引擎，根据规则集与字段值计算0-100质量分数及缺失字段
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 规则加载 -> 权重归一化 -> 缺失判定 -> 计算百分比 -> 缺失字段分组排序 -> 状态分级
 * @rules 纯函数计算，不访问存储，不返回错误；空规则集视为满分
 * @dependencies golang.org/x/text/cases, math, sort
 * @refs service/rulestore/, service/record_scoring/
 */

package scoring

import (
	"math"
	"sort"

	"golang.org/x/text/cases"
)

const (
	// PoorThreshold 低于该分数为 Poor
	PoorThreshold = 50
	// HealthyThreshold 高于该分数为 Healthy
	HealthyThreshold = 80
)

// Engine 评分引擎
type Engine struct {
	labels LabelDeriver
}

// NewEngine 创建评分引擎实例
func NewEngine(labels LabelDeriver) *Engine {
	return &Engine{labels: labels}
}

// Labels 返回引擎使用的显示名称推导器
func (e *Engine) Labels() LabelDeriver {
	return e.labels
}

// Score 计算记录的质量分数
func (e *Engine) Score(rules []Rule, values map[string]interface{}) ScoreResult {
	result := ScoreResult{
		Percentage:         100,
		Status:             StatusHealthy,
		MissingRequired:    []FieldRef{},
		MissingRecommended: []FieldRef{},
	}

	// 未配置规则的类型不做评价，按满分处理
	if len(rules) == 0 {
		return result
	}

	totalWeight := 0
	achievedWeight := 0
	for _, rule := range rules {
		weight := NormalizeWeight(rule.Weight)
		totalWeight += weight

		if !isFieldMissing(values, rule.FieldName) {
			achievedWeight += weight
			continue
		}

		ref := FieldRef{
			FieldName: rule.FieldName,
			Label:     e.labels.Resolve(rule.FieldName, rule.Label),
		}
		if rule.Required {
			result.MissingRequired = append(result.MissingRequired, ref)
		} else {
			result.MissingRecommended = append(result.MissingRecommended, ref)
		}
	}

	result.Percentage = percentage(achievedWeight, totalWeight)
	result.Status = Classify(result.Percentage)

	sortByLabel(result.MissingRequired)
	sortByLabel(result.MissingRecommended)

	return result
}

// Classify 按分数划分质量状态，50 与 80 均属于 AtRisk
func Classify(pct int) Status {
	switch {
	case pct < PoorThreshold:
		return StatusPoor
	case pct > HealthyThreshold:
		return StatusHealthy
	default:
		return StatusAtRisk
	}
}

func percentage(achieved, total int) int {
	if total <= 0 {
		return 100
	}
	pct := int(math.Round(float64(achieved) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// sortByLabel 按显示名称忽略大小写升序排列，名称相同时保持规则顺序
func sortByLabel(refs []FieldRef) {
	if len(refs) < 2 {
		return
	}
	// cases.Caser 非并发安全，每次调用单独创建
	fold := cases.Fold()
	keys := make(map[string]string, len(refs))
	for _, ref := range refs {
		if _, ok := keys[ref.Label]; !ok {
			keys[ref.Label] = fold.String(ref.Label)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return keys[refs[i].Label] < keys[refs[j].Label]
	})
}
