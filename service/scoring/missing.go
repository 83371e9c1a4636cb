/*
 * @module service/scoring/missing
 * @description 字段缺失判定
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 字段值 -> 解引用 -> 空值/空白字符串/空集合判定
 * @rules false 与 0 视为已填写；不可读取的值视为缺失
 * @dependencies reflect, strings
 * @refs service/scoring/engine.go
 */

package scoring

import (
	"reflect"
	"strings"
)

// IsMissing 判断字段值是否缺失
func IsMissing(value interface{}) bool {
	if value == nil {
		return true
	}

	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Chan, reflect.Func:
		return rv.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

// isFieldMissing 字段不存在同样视为缺失
func isFieldMissing(values map[string]interface{}, fieldName string) bool {
	value, exists := values[fieldName]
	if !exists {
		return true
	}
	return IsMissing(value)
}
