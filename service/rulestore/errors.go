/*
 * @module service/rulestore/errors
 * @description 规则存储错误类型：校验错误、重复规则集错误、规则集不存在
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 输入校验/唯一性检查 -> 类型化错误 -> 控制器映射HTTP状态
 * @rules 校验错误与重复错误均不产生任何部分写入
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/rulestore/store.go, api/controllers/rule_set_controller.go
 */

package rulestore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrRuleSetNotFound 规则集不存在
var ErrRuleSetNotFound = errors.New("规则集不存在")

// FieldIssue 单条规则的校验问题
type FieldIssue struct {
	Index     int    `json:"index"`
	FieldName string `json:"field_name"`
	Reason    string `json:"reason"`
}

// ValidationError 规则输入校验错误
type ValidationError struct {
	RecordType string       `json:"record_type"`
	Issues     []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Index < 0 {
			parts = append(parts, issue.Reason)
			continue
		}
		parts = append(parts, fmt.Sprintf("第%d条规则(%s): %s", issue.Index+1, issue.FieldName, issue.Reason))
	}
	return fmt.Sprintf("规则校验失败[%s]: %s", e.RecordType, strings.Join(parts, "; "))
}

// DuplicateError 同一记录类型重复创建规则集
type DuplicateError struct {
	RecordType string `json:"record_type"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("记录类型 %s 已存在规则集", e.RecordType)
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsDuplicateError 判断是否为重复错误
func IsDuplicateError(err error) bool {
	var target *DuplicateError
	return errors.As(err, &target)
}

// isUniqueViolation 判断数据库唯一约束冲突
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
