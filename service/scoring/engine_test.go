/*
 * @module service/scoring/engine_test
 * @description 评分引擎单元测试
 * @architecture 测试层
 * @documentReference SPEC_FULL.md
 * @stateFlow 构造规则与字段值 -> 计算分数 -> 验证分数/状态/缺失字段
 * @rules 覆盖空规则、权重计算、边界分级、缺失字段排序
 * @dependencies testing, testify
 */

package scoring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultLabelDeriver())
}

func fieldNames(refs []FieldRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.FieldName)
	}
	return names
}

// TestScore_EmptyRules 空规则集为满分
func TestScore_EmptyRules(t *testing.T) {
	engine := newTestEngine()

	result := engine.Score(nil, map[string]interface{}{"Name": ""})

	assert.Equal(t, 100, result.Percentage)
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Empty(t, result.MissingRequired)
	assert.Empty(t, result.MissingRecommended)
	assert.NotNil(t, result.MissingRequired, "缺失列表应为空切片而非nil")
}

// TestScore_WeightedPartial 加权部分完整
func TestScore_WeightedPartial(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "Field A", Weight: 5, Required: true},
		{FieldName: "Field B", Weight: 1, Required: false},
	}

	result := engine.Score(rules, map[string]interface{}{"Field A": "x"})

	assert.Equal(t, 83, result.Percentage)
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Empty(t, result.MissingRequired)
	assert.Equal(t, []string{"Field B"}, fieldNames(result.MissingRecommended))
}

// TestScore_AllMissing 全部缺失
func TestScore_AllMissing(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "Field A", Weight: 5, Required: true},
		{FieldName: "Field B", Weight: 1, Required: false},
	}

	result := engine.Score(rules, map[string]interface{}{"Field B": nil})

	assert.Equal(t, 0, result.Percentage)
	assert.Equal(t, StatusPoor, result.Status)
	assert.Equal(t, []string{"Field A"}, fieldNames(result.MissingRequired))
	assert.Equal(t, []string{"Field B"}, fieldNames(result.MissingRecommended))
}

// TestScore_EmptyStringIsMissing 空字符串视为缺失
func TestScore_EmptyStringIsMissing(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{{FieldName: "Field A", Weight: 3, Required: true}}

	result := engine.Score(rules, map[string]interface{}{"Field A": ""})

	assert.Equal(t, 0, result.Percentage)
	assert.Equal(t, []string{"Field A"}, fieldNames(result.MissingRequired))
}

// TestScore_FalseAndZeroArePresent false 与 0 视为已填写
func TestScore_FalseAndZeroArePresent(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "IsActive", Weight: 2},
		{FieldName: "Employees", Weight: 2},
	}

	result := engine.Score(rules, map[string]interface{}{"IsActive": false, "Employees": 0})

	assert.Equal(t, 100, result.Percentage)
	assert.Empty(t, result.MissingRecommended)
}

// TestScore_StatusBoundaries 分级边界
func TestScore_StatusBoundaries(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		rules    []Rule
		values   map[string]interface{}
		expected int
		status   Status
	}{
		{
			name:     "恰好50为AtRisk",
			rules:    []Rule{{FieldName: "A", Weight: 1}, {FieldName: "B", Weight: 1}},
			values:   map[string]interface{}{"A": "x"},
			expected: 50,
			status:   StatusAtRisk,
		},
		{
			name:     "恰好80为AtRisk",
			rules:    []Rule{{FieldName: "A", Weight: 4}, {FieldName: "B", Weight: 1}},
			values:   map[string]interface{}{"A": "x"},
			expected: 80,
			status:   StatusAtRisk,
		},
		{
			name:     "低于50为Poor",
			rules:    []Rule{{FieldName: "A", Weight: 2}, {FieldName: "B", Weight: 3}},
			values:   map[string]interface{}{"A": "x"},
			expected: 40,
			status:   StatusPoor,
		},
		{
			name:     "高于80为Healthy",
			rules:    []Rule{{FieldName: "A", Weight: 5}, {FieldName: "B", Weight: 1}},
			values:   map[string]interface{}{"A": "x"},
			expected: 83,
			status:   StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Score(tt.rules, tt.values)
			assert.Equal(t, tt.expected, result.Percentage)
			assert.Equal(t, tt.status, result.Status)
		})
	}
}

// TestClassify 状态分级
func TestClassify(t *testing.T) {
	assert.Equal(t, StatusPoor, Classify(0))
	assert.Equal(t, StatusPoor, Classify(49))
	assert.Equal(t, StatusAtRisk, Classify(50))
	assert.Equal(t, StatusAtRisk, Classify(80))
	assert.Equal(t, StatusHealthy, Classify(81))
	assert.Equal(t, StatusHealthy, Classify(100))
}

// TestScore_PercentageAlwaysInRange 分数始终位于[0,100]
func TestScore_PercentageAlwaysInRange(t *testing.T) {
	engine := newTestEngine()
	weights := []interface{}{nil, 0, 1, 3, 5, 9, -4, "2", "4 – High", "abc", 2.5}

	for i := range weights {
		for j := range weights {
			for mask := 0; mask < 4; mask++ {
				rules := []Rule{
					{FieldName: "A", Weight: weights[i], Required: true},
					{FieldName: "B", Weight: weights[j]},
				}
				values := map[string]interface{}{}
				if mask&1 != 0 {
					values["A"] = "value"
				}
				if mask&2 != 0 {
					values["B"] = 42
				}

				result := engine.Score(rules, values)
				assert.GreaterOrEqual(t, result.Percentage, 0)
				assert.LessOrEqual(t, result.Percentage, 100)
				assert.Equal(t, Classify(result.Percentage), result.Status)
			}
		}
	}
}

// TestScore_DuplicateFieldsEachCount 重复字段各自计入权重
func TestScore_DuplicateFieldsEachCount(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "A", Weight: 2},
		{FieldName: "A", Weight: 2},
		{FieldName: "B", Weight: 1},
	}

	result := engine.Score(rules, map[string]interface{}{"B": "x"})

	assert.Equal(t, 20, result.Percentage)
	assert.Equal(t, []string{"A", "A"}, fieldNames(result.MissingRecommended))
}

// TestScore_MalformedWeightNormalized 异常权重按默认值处理
func TestScore_MalformedWeightNormalized(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "A", Weight: "3 – Medium"},
		{FieldName: "B", Weight: "not a number"},
	}

	result := engine.Score(rules, map[string]interface{}{"A": "x"})

	// 3 / (3 + 1)
	assert.Equal(t, 75, result.Percentage)
	assert.Equal(t, StatusAtRisk, result.Status)
}

// TestScore_MissingSortedByLabel 缺失字段按显示名称忽略大小写排序
func TestScore_MissingSortedByLabel(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "Website", Weight: 1},
		{FieldName: "industry", Weight: 1, Label: "industry"},
		{FieldName: "BillingCity", Weight: 1},
		{FieldName: "OwnerId", Weight: 1},
		{FieldName: "Phone", Weight: 1, Required: true, Label: "phone"},
		{FieldName: "AnnualRevenue__c", Weight: 1, Required: true},
	}

	result := engine.Score(rules, map[string]interface{}{})

	require.Len(t, result.MissingRecommended, 4)
	assert.Equal(t, []string{"BillingCity", "industry", "OwnerId", "Website"}, fieldNames(result.MissingRecommended))
	assert.Equal(t, "Billing City", result.MissingRecommended[0].Label)
	assert.Equal(t, "Owner Name", result.MissingRecommended[2].Label)
	assert.Equal(t, []string{"AnnualRevenue__c", "Phone"}, fieldNames(result.MissingRequired))
	assert.Equal(t, "Annual Revenue", result.MissingRequired[0].Label)
}

// TestScore_RequiredDoesNotAffectScore 必填标记只影响分组
func TestScore_RequiredDoesNotAffectScore(t *testing.T) {
	engine := newTestEngine()
	values := map[string]interface{}{"A": "x"}

	required := engine.Score([]Rule{{FieldName: "A", Weight: 2, Required: true}, {FieldName: "B", Weight: 2, Required: true}}, values)
	recommended := engine.Score([]Rule{{FieldName: "A", Weight: 2}, {FieldName: "B", Weight: 2}}, values)

	assert.Equal(t, required.Percentage, recommended.Percentage)
}

// TestScore_ConcurrentCalls 并发调用互不影响
func TestScore_ConcurrentCalls(t *testing.T) {
	engine := newTestEngine()
	rules := []Rule{
		{FieldName: "zeta", Weight: 1},
		{FieldName: "Alpha", Weight: 1},
		{FieldName: "beta", Weight: 3},
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values := map[string]interface{}{}
			if i%2 == 0 {
				values["beta"] = fmt.Sprintf("v%d", i)
			}
			result := engine.Score(rules, values)
			if i%2 == 0 {
				assert.Equal(t, 60, result.Percentage)
				assert.Equal(t, []string{"Alpha", "zeta"}, fieldNames(result.MissingRecommended))
			} else {
				assert.Equal(t, 0, result.Percentage)
				assert.Equal(t, []string{"Alpha", "beta", "zeta"}, fieldNames(result.MissingRecommended))
			}
		}(i)
	}
	wg.Wait()
}
