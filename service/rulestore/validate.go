/*
 * @module service/rulestore/validate
 * @description 规则批量输入校验
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 输入规则列表 -> 逐条校验 -> 汇总问题 -> ValidationError
 * @rules 字段名非空、权重在[1,5]、同批次字段名不可重复(拒绝而非去重)
 * @dependencies strings
 * @refs service/rulestore/store.go
 */

package rulestore

import (
	"fmt"
	"recordquality-service/service/models"
	"recordquality-service/service/scoring"
	"strings"
)

// FieldRuleInput 字段规则输入
type FieldRuleInput struct {
	FieldName    string `json:"field_name" example:"AnnualRevenue"`
	DisplayLabel string `json:"display_label,omitempty" example:"Annual Revenue"`
	Weight       int    `json:"weight" example:"3"`
	Required     bool   `json:"required" example:"true"`
}

// ValidateRules 校验一批规则，返回 *ValidationError 或 nil
func ValidateRules(recordType string, rules []FieldRuleInput) error {
	var issues []FieldIssue

	if strings.TrimSpace(recordType) == "" {
		issues = append(issues, FieldIssue{Index: -1, Reason: "记录类型不能为空"})
	}

	seen := make(map[string]int, len(rules))
	for i, rule := range rules {
		name := strings.TrimSpace(rule.FieldName)
		if name == "" {
			issues = append(issues, FieldIssue{Index: i, FieldName: rule.FieldName, Reason: "字段名不能为空"})
		} else if first, ok := seen[name]; ok {
			issues = append(issues, FieldIssue{
				Index:     i,
				FieldName: name,
				Reason:    fmt.Sprintf("字段名与第%d条规则重复", first+1),
			})
		} else {
			seen[name] = i
		}

		if rule.Weight < scoring.MinWeight || rule.Weight > scoring.MaxWeight {
			issues = append(issues, FieldIssue{
				Index:     i,
				FieldName: name,
				Reason:    fmt.Sprintf("权重 %d 超出范围[%d,%d]", rule.Weight, scoring.MinWeight, scoring.MaxWeight),
			})
		}
	}

	if len(issues) > 0 {
		return &ValidationError{RecordType: recordType, Issues: issues}
	}
	return nil
}

// buildFieldRules 按输入顺序构造字段规则
func buildFieldRules(ruleSetID string, rules []FieldRuleInput) []models.FieldRule {
	result := make([]models.FieldRule, 0, len(rules))
	for i, rule := range rules {
		result = append(result, models.FieldRule{
			RuleSetID:    ruleSetID,
			FieldName:    strings.TrimSpace(rule.FieldName),
			DisplayLabel: strings.TrimSpace(rule.DisplayLabel),
			Weight:       rule.Weight,
			Required:     rule.Required,
			Position:     i,
		})
	}
	return result
}
