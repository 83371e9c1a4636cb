/*
 * @module service/scoring/weight
 * @description 规则权重归一化
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 原始权重 -> 数值解析 -> 提取前导整数 -> 截断到[1,5]
 * @rules 异常权重不报错，统一回退为默认权重1
 * @dependencies github.com/spf13/cast
 * @refs service/scoring/engine.go
 */

package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

var leadingIntPattern = regexp.MustCompile(`^[+-]?\d+`)

// NormalizeWeight 将任意存储形式的权重归一化到 [MinWeight, MaxWeight]
func NormalizeWeight(raw interface{}) int {
	if raw == nil {
		return DefaultWeight
	}

	weight, ok := parseWeight(raw)
	if !ok {
		return DefaultWeight
	}
	return clampWeight(weight)
}

func parseWeight(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case string:
		return parseWeightString(v)
	case fmt.Stringer:
		return parseWeightString(v.String())
	}

	if n, err := cast.ToIntE(raw); err == nil {
		return n, true
	}
	return parseWeightString(fmt.Sprintf("%v", raw))
}

// parseWeightString 解析字符串权重，如 "3"、"3.0"、"3 – Medium"
func parseWeightString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := cast.ToIntE(s); err == nil {
		return n, true
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return int(f), true
	}

	lead := leadingIntPattern.FindString(s)
	if lead == "" {
		return 0, false
	}
	n, err := cast.ToIntE(strings.TrimPrefix(lead, "+"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func clampWeight(w int) int {
	if w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}
