/*
 * @module service/scoring/label
 * @description 字段显示名称推导，仅用于展示与排序，不影响分数
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 字段标识 -> 去除自定义字段后缀 -> ID字段转名称 -> 驼峰拆分 -> 去空白
 * @rules 显式配置的显示名称优先于推导结果
 * @dependencies strings, unicode
 * @refs service/scoring/engine.go
 */

package scoring

import (
	"strings"
	"unicode"
)

const (
	DefaultCustomSuffix = "__c"
	DefaultIDSuffix     = "Id"
)

// LabelDeriver 显示名称推导器
type LabelDeriver struct {
	CustomSuffix string // 自定义字段后缀标记，如 "__c"
	IDSuffix     string // ID 字段后缀标记，如 "Id"
}

// DefaultLabelDeriver 默认推导器
func DefaultLabelDeriver() LabelDeriver {
	return LabelDeriver{
		CustomSuffix: DefaultCustomSuffix,
		IDSuffix:     DefaultIDSuffix,
	}
}

// Derive 由字段标识推导显示名称
// 例如 "AccountId" -> "Account Name"，"AnnualRevenue__c" -> "Annual Revenue"
func (d LabelDeriver) Derive(fieldName string) string {
	name := strings.TrimSpace(fieldName)

	if d.CustomSuffix != "" && strings.HasSuffix(name, d.CustomSuffix) {
		name = strings.TrimSuffix(name, d.CustomSuffix)
	}

	if d.IDSuffix != "" && len(name) > len(d.IDSuffix) && strings.HasSuffix(name, d.IDSuffix) {
		base := strings.TrimRight(strings.TrimSuffix(name, d.IDSuffix), "_ ")
		if base != "" {
			name = base + " Name"
		}
	}

	return strings.TrimSpace(splitCamelCase(name))
}

// Resolve 优先使用显式名称
func (d LabelDeriver) Resolve(fieldName, explicit string) string {
	if label := strings.TrimSpace(explicit); label != "" {
		return label
	}
	return d.Derive(fieldName)
}

// splitCamelCase 在小写字母/数字与其后的大写字母之间插入空格
func splitCamelCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
