/*
 * @module service/models/jsonb
 * @description 记录字段值的JSON列类型
 * @architecture 数据模型层
 * @documentReference SPEC_FULL.md
 * @stateFlow map -> JSON文本写入 -> 读取时反序列化
 * @rules 空值读取为nil；仅接受 []byte 与 string 两种驱动值
 * @dependencies database/sql/driver, encoding/json
 * @refs service/models/monitored_record.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB 字段名到字段值的映射
type JSONB map[string]interface{}

// Scan 实现 sql.Scanner
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("JSONB类型断言失败: %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 driver.Valuer
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
