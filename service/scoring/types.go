/*
 * @module service/scoring/types
 * @description 评分引擎的输入输出类型
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 规则+字段值 -> 评分结果
 * @rules 评分结果为瞬时对象，不由引擎持久化
 * @dependencies 无
 * @refs service/scoring/engine.go
 */

package scoring

// Status 质量状态
type Status string

const (
	StatusPoor    Status = "Poor"
	StatusAtRisk  Status = "AtRisk"
	StatusHealthy Status = "Healthy"
)

const (
	// MinWeight 最小权重
	MinWeight = 1
	// MaxWeight 最大权重
	MaxWeight = 5
	// DefaultWeight 权重缺失或无法解析时使用
	DefaultWeight = 1
)

// Rule 参与评分的字段规则
// Weight 允许任意存储形式(数字、"3"、"3 – Medium"、空值)，评分前统一归一化
type Rule struct {
	FieldName string      `json:"field_name"`
	Label     string      `json:"display_label,omitempty"`
	Weight    interface{} `json:"weight"`
	Required  bool        `json:"required"`
}

// FieldRef 缺失字段引用
type FieldRef struct {
	FieldName string `json:"field_name"`
	Label     string `json:"label"`
}

// ScoreResult 评分结果
type ScoreResult struct {
	Percentage         int        `json:"percentage"`
	Status             Status     `json:"status"`
	MissingRequired    []FieldRef `json:"missing_required"`
	MissingRecommended []FieldRef `json:"missing_recommended"`
}
