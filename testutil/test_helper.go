/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference SPEC_FULL.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"recordquality-service/service/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接是独立数据库，限制为单连接
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to get test database: %v", err))
	}
	sqlDB.SetMaxOpenConns(1)

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.RuleSet{},
		&models.FieldRule{},
		&models.MonitoredRecord{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"field_rules",
		"rule_sets",
		"monitored_records",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// RuleSetOption 规则集选项函数类型
type RuleSetOption func(*models.RuleSet)

// WithFieldRule 追加一条字段规则
func WithFieldRule(fieldName string, weight int, required bool) RuleSetOption {
	return func(set *models.RuleSet) {
		set.Rules = append(set.Rules, models.FieldRule{
			FieldName: fieldName,
			Weight:    weight,
			Required:  required,
			Position:  len(set.Rules),
		})
	}
}

// CreateRuleSet 直接写入测试规则集（绕过规则存储的校验）
func (f *TestDataFactory) CreateRuleSet(recordType string, opts ...RuleSetOption) *models.RuleSet {
	set := &models.RuleSet{
		RecordType: recordType,
		CreatedBy:  "test",
		UpdatedBy:  "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(set)
	}

	rules := set.Rules
	set.Rules = nil
	if err := f.DB.Create(set).Error; err != nil {
		panic(fmt.Sprintf("failed to create test rule set: %v", err))
	}
	for i := range rules {
		rules[i].RuleSetID = set.ID
	}
	if len(rules) > 0 {
		if err := f.DB.Create(&rules).Error; err != nil {
			panic(fmt.Sprintf("failed to create test field rules: %v", err))
		}
	}
	set.Rules = rules

	return set
}

// CreateRecord 创建测试记录
func (f *TestDataFactory) CreateRecord(recordType string, fields map[string]interface{}) *models.MonitoredRecord {
	record := &models.MonitoredRecord{
		ID:         generateID("rec"),
		RecordType: recordType,
		Fields:     models.JSONB(fields),
		CreatedBy:  "test",
		UpdatedBy:  "test",
	}

	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create test record: %v", err))
	}

	return record
}

var idCounter struct {
	sync.Mutex
	n int64
}

// 辅助函数
func generateID(prefix string) string {
	idCounter.Lock()
	defer idCounter.Unlock()
	idCounter.n++
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), idCounter.n)
}

// MockEventPublisher Mock事件发布器
type MockEventPublisher struct {
	mock.Mock
}

// Publish 发布事件
func (m *MockEventPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Close 关闭发布器
func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// RecordingPublisher 记录全部已发布事件的发布器
type RecordingPublisher struct {
	mu     sync.Mutex
	events []models.QualityEvent
}

// Publish 发布事件
func (p *RecordingPublisher) Publish(ctx context.Context, event *models.QualityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

// Close 关闭发布器
func (p *RecordingPublisher) Close() error {
	return nil
}

// Events 已发布事件
func (p *RecordingPublisher) Events() []models.QualityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := make([]models.QualityEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventsOfType 指定类型的已发布事件
func (p *RecordingPublisher) EventsOfType(eventType string) []models.QualityEvent {
	var result []models.QualityEvent
	for _, event := range p.Events() {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeJSON 解析响应体
func (h *HTTPTestHelper) DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(w.Body.Bytes(), target)
	assert.NoError(t, err, "响应体应为合法JSON: %s", w.Body.String())
}
