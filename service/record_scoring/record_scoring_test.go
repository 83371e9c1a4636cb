/*
 * @module service/record_scoring/record_scoring_test
 * @description 记录评分钩子、记录保存与重评分测试
 * @architecture 测试层 - 使用内存SQLite数据库与真实规则存储
 * @documentReference SPEC_FULL.md
 * @rules 规则集读取失败时记录仍然保存；同批次同类型只读取一次规则集
 * @dependencies testing, testify, recordquality-service/testutil
 * @refs scoring_service.go, record_service.go, rescore_scheduler.go
 */

package record_scoring

import (
	"context"
	"errors"
	"recordquality-service/service/catalog"
	"recordquality-service/service/models"
	"recordquality-service/service/rulestore"
	"recordquality-service/service/scoring"
	"recordquality-service/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// MockRuleSetReader 模拟规则集读取
type MockRuleSetReader struct {
	mock.Mock
}

func (m *MockRuleSetReader) GetRuleSet(ctx context.Context, recordType string) (*models.RuleSet, error) {
	args := m.Called(ctx, recordType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RuleSet), args.Error(1)
}

// staticCatalog 固定标签目录
type staticCatalog map[string]string

func (c staticCatalog) Fields(recordType string) []catalog.FieldInfo {
	return nil
}

func (c staticCatalog) Label(recordType, fieldName string) (string, bool) {
	label, ok := c[recordType+"."+fieldName]
	return label, ok
}

// RecordScoringTestSuite 记录评分测试套件
type RecordScoringTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDB
	store     *rulestore.RuleStore
	publisher *testutil.RecordingPublisher
	scorer    *ScoringService
	records   *RecordService
	ctx       context.Context
}

func (s *RecordScoringTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.publisher = &testutil.RecordingPublisher{}
	s.store = rulestore.NewRuleStore(s.testDB.DB, nil, nil)
	s.scorer = NewScoringService(s.store, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, s.publisher)
	s.records = NewRecordService(s.testDB.DB, s.scorer)
	s.ctx = context.Background()

	_, err := s.store.CreateRuleSet(s.ctx, "Account", []rulestore.FieldRuleInput{
		{FieldName: "Phone", Weight: 2, Required: true},
		{FieldName: "Industry", Weight: 1},
		{FieldName: "Website", Weight: 1},
	})
	s.Require().NoError(err)
}

func (s *RecordScoringTestSuite) TearDownTest() {
	s.testDB.Close()
}

func TestRecordScoringTestSuite(t *testing.T) {
	suite.Run(t, new(RecordScoringTestSuite))
}

// TestScoreRecords_SetsScoreAndTimestamp 评分写入分数与时间戳
func (s *RecordScoringTestSuite) TestScoreRecords_SetsScoreAndTimestamp() {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.scorer.now = func() time.Time { return fixed }

	record := &models.MonitoredRecord{
		ID:         "acc-1",
		RecordType: "Account",
		Fields:     models.JSONB{"Phone": "555-0100", "Industry": "Energy"},
	}
	summary, pending := s.scorer.ScoreRecords(s.ctx, []Record{record})

	s.Equal(1, summary.Scored)
	s.Require().NotNil(record.Score)
	s.Equal(75, *record.Score)
	s.Require().NotNil(record.ScoreTimestamp)
	s.True(fixed.Equal(*record.ScoreTimestamp))

	// 评分本身不发布事件
	s.Empty(s.publisher.EventsOfType(models.EventRecordScored))
	s.Require().Len(pending, 1)

	s.scorer.PublishEvents(s.ctx, pending)
	events := s.publisher.EventsOfType(models.EventRecordScored)
	s.Require().Len(events, 1)
	s.Equal("acc-1", events[0].RecordID)
	s.Equal(string(scoring.StatusAtRisk), events[0].Status)
}

// TestScoreRecords_UnconfiguredTypeIsHealthy 未配置规则的类型得满分
func (s *RecordScoringTestSuite) TestScoreRecords_UnconfiguredTypeIsHealthy() {
	record := &models.MonitoredRecord{RecordType: "Widget", Fields: models.JSONB{}}
	s.scorer.ScoreRecords(s.ctx, []Record{record})

	s.Require().NotNil(record.Score)
	s.Equal(100, *record.Score)
}

// TestScoreRecords_OneFetchPerType 同批次同类型只读取一次规则集
func (s *RecordScoringTestSuite) TestScoreRecords_OneFetchPerType() {
	reader := &MockRuleSetReader{}
	reader.On("GetRuleSet", mock.Anything, "Account").Return(&models.RuleSet{
		ID:         "rs-1",
		RecordType: "Account",
		Generation: 1,
		Rules:      []models.FieldRule{{FieldName: "Phone", Weight: 1}},
	}, nil).Once()
	reader.On("GetRuleSet", mock.Anything, "Contact").Return(&models.RuleSet{RecordType: "Contact"}, nil).Once()

	scorer := NewScoringService(reader, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, nil)
	records := []Record{
		&models.MonitoredRecord{RecordType: "Account", Fields: models.JSONB{"Phone": "1"}},
		&models.MonitoredRecord{RecordType: "Contact", Fields: models.JSONB{}},
		&models.MonitoredRecord{RecordType: "Account", Fields: models.JSONB{}},
	}
	summary, _ := scorer.ScoreRecords(s.ctx, records)

	s.Equal(3, summary.Scored)
	s.Equal(100, *records[0].(*models.MonitoredRecord).Score)
	s.Equal(0, *records[2].(*models.MonitoredRecord).Score)
	reader.AssertExpectations(s.T())
}

// TestScoreRecords_ReaderFailureLeavesUnscored 规则集读取失败时记录保持未评分
func (s *RecordScoringTestSuite) TestScoreRecords_ReaderFailureLeavesUnscored() {
	reader := &MockRuleSetReader{}
	reader.On("GetRuleSet", mock.Anything, "Account").Return(nil, errors.New("database unavailable"))

	scorer := NewScoringService(reader, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, nil)
	record := &models.MonitoredRecord{RecordType: "Account", Fields: models.JSONB{"Phone": "1"}}
	summary, events := scorer.ScoreRecords(s.ctx, []Record{record})

	s.Equal(0, summary.Scored)
	s.Empty(events)
	s.Equal(1, summary.Skipped)
	s.Nil(record.Score)
	s.Nil(record.ScoreTimestamp)
}

// TestSaveRecords_PersistsWhenScoringFails 评分失败不影响保存
func (s *RecordScoringTestSuite) TestSaveRecords_PersistsWhenScoringFails() {
	reader := &MockRuleSetReader{}
	reader.On("GetRuleSet", mock.Anything, "Account").Return(nil, errors.New("database unavailable"))
	records := NewRecordService(s.testDB.DB, NewScoringService(reader, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, nil))

	saved, summary, err := records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Phone": "555"}},
	})
	s.Require().NoError(err)
	s.Equal(1, summary.Skipped)
	s.Require().Len(saved, 1)

	stored, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Nil(stored.Score)
	s.Equal("555", stored.Fields["Phone"])
}

// TestSaveRecords_KeepsPreviousScoreWhenScoringSkipped 评分被跳过时保留已保存的分数
func (s *RecordScoringTestSuite) TestSaveRecords_KeepsPreviousScoreWhenScoringSkipped() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Industry": "Energy"}},
	})
	s.Require().NoError(err)
	first, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Require().NotNil(first.Score)
	s.Require().NotNil(first.ScoreTimestamp)

	reader := &MockRuleSetReader{}
	reader.On("GetRuleSet", mock.Anything, "Account").Return(nil, errors.New("database unavailable"))
	degraded := NewRecordService(s.testDB.DB, NewScoringService(reader, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, nil))

	_, summary, err := degraded.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Industry": "Energy", "Website": "example.com"}},
	})
	s.Require().NoError(err)
	s.Equal(1, summary.Skipped)

	stored, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Equal("example.com", stored.Fields["Website"])
	s.Require().NotNil(stored.Score)
	s.Equal(*first.Score, *stored.Score)
	s.Require().NotNil(stored.ScoreTimestamp)
	s.True(first.ScoreTimestamp.Equal(*stored.ScoreTimestamp))
}

// TestSaveRecords_PublishesAfterCommit 保存成功后才发布评分事件
func (s *RecordScoringTestSuite) TestSaveRecords_PublishesAfterCommit() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Phone": "555"}},
		{ID: "acc-2", RecordType: "Account", Fields: map[string]interface{}{}},
	})
	s.Require().NoError(err)

	events := s.publisher.EventsOfType(models.EventRecordScored)
	s.Require().Len(events, 2)
	s.Equal("acc-1", events[0].RecordID)
	s.Equal("acc-2", events[1].RecordID)
}

// batchPublisher 记录批量投递次数
type batchPublisher struct {
	testutil.RecordingPublisher
	batches [][]*models.QualityEvent
}

func (p *batchPublisher) PublishBatch(ctx context.Context, events []*models.QualityEvent) error {
	p.batches = append(p.batches, events)
	return nil
}

// TestSaveRecords_PublishesOneBatch 发布器支持批量时整批只投递一次
func (s *RecordScoringTestSuite) TestSaveRecords_PublishesOneBatch() {
	publisher := &batchPublisher{}
	scorer := NewScoringService(s.store, scoring.NewEngine(scoring.DefaultLabelDeriver()), nil, publisher)
	records := NewRecordService(s.testDB.DB, scorer)

	_, _, err := records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Phone": "555"}},
		{ID: "con-1", RecordType: "Contact", Fields: map[string]interface{}{}},
	})
	s.Require().NoError(err)

	s.Require().Len(publisher.batches, 1)
	s.Len(publisher.batches[0], 2)
	s.Empty(publisher.Events())
}

// TestSaveRecords_NoEventsWhenUpsertFails 写入失败时不发布评分事件
func (s *RecordScoringTestSuite) TestSaveRecords_NoEventsWhenUpsertFails() {
	err := s.testDB.DB.Callback().Create().Before("gorm:create").Register("test:fail_records", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "monitored_records" {
			tx.AddError(errors.New("injected upsert failure"))
		}
	})
	s.Require().NoError(err)

	_, _, err = s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Phone": "555"}},
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "injected upsert failure")
	s.Empty(s.publisher.EventsOfType(models.EventRecordScored))
}

// TestSaveRecords_UpsertRescores 再次保存同一记录时更新字段与分数
func (s *RecordScoringTestSuite) TestSaveRecords_UpsertRescores() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Industry": "Energy"}},
	})
	s.Require().NoError(err)

	first, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Require().NotNil(first.Score)
	s.Equal(25, *first.Score)

	_, _, err = s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{
			"Industry": "Energy", "Phone": "555", "Website": "example.com",
		}},
	})
	s.Require().NoError(err)

	second, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Require().NotNil(second.Score)
	s.Equal(100, *second.Score)

	var count int64
	s.testDB.DB.Model(&models.MonitoredRecord{}).Count(&count)
	s.Equal(int64(1), count)
}

// TestSaveRecords_RequiresRecordType 缺少记录类型时拒绝整批
func (s *RecordScoringTestSuite) TestSaveRecords_RequiresRecordType() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{RecordType: "Account"},
		{RecordType: " "},
	})
	s.True(errors.Is(err, ErrInvalidRecord))

	var count int64
	s.testDB.DB.Model(&models.MonitoredRecord{}).Count(&count)
	s.Equal(int64(0), count)
}

// TestGetRecord_NotFound 记录不存在
func (s *RecordScoringTestSuite) TestGetRecord_NotFound() {
	_, err := s.records.GetRecord(s.ctx, "missing")
	s.True(errors.Is(err, ErrRecordNotFound))
}

// TestListRecords 分页与类型过滤
func (s *RecordScoringTestSuite) TestListRecords() {
	factory := testutil.NewTestDataFactory(s.testDB.DB)
	for i := 0; i < 3; i++ {
		factory.CreateRecord("Account", map[string]interface{}{"Phone": "1"})
	}
	factory.CreateRecord("Contact", map[string]interface{}{})

	page, total, err := s.records.ListRecords(s.ctx, "Account", 1, 2)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(page, 2)

	all, total, err := s.records.ListRecords(s.ctx, "", 1, 20)
	s.Require().NoError(err)
	s.Equal(int64(4), total)
	s.Len(all, 4)
}

// TestEvaluate_UsesStoredRules 即时评分使用当前规则集
func (s *RecordScoringTestSuite) TestEvaluate_UsesStoredRules() {
	result, err := s.scorer.Evaluate(s.ctx, "Account", map[string]interface{}{"Website": "example.com"})
	s.Require().NoError(err)

	s.Equal(25, result.Percentage)
	s.Equal(scoring.StatusPoor, result.Status)
	s.Require().Len(result.MissingRequired, 1)
	s.Equal("Phone", result.MissingRequired[0].FieldName)
	s.Require().Len(result.MissingRecommended, 1)
	s.Equal("Industry", result.MissingRecommended[0].FieldName)
}

// TestBuildRules_LabelPrecedence 显式标签优先于目录标签，目录标签优先于推导
func (s *RecordScoringTestSuite) TestBuildRules_LabelPrecedence() {
	scorer := NewScoringService(s.store, scoring.NewEngine(scoring.DefaultLabelDeriver()), staticCatalog{
		"Account.OwnerId":  "Account Owner",
		"Account.Industry": "Catalog Industry",
	}, nil)

	set := &models.RuleSet{
		RecordType: "Account",
		Rules: []models.FieldRule{
			{FieldName: "OwnerId", Weight: 1},
			{FieldName: "Industry", DisplayLabel: "Sector", Weight: 1},
			{FieldName: "Rating__c", Weight: 1},
		},
	}
	result := scorer.engine.Score(scorer.BuildRules(set), map[string]interface{}{})

	labels := map[string]string{}
	for _, ref := range result.MissingRecommended {
		labels[ref.FieldName] = ref.Label
	}
	s.Equal("Account Owner", labels["OwnerId"])
	s.Equal("Sector", labels["Industry"])
	s.Equal("Rating", labels["Rating__c"])
}

// TestRescoreAll_AppliesNewRules 规则替换后重评分刷新已保存分数
func (s *RecordScoringTestSuite) TestRescoreAll_AppliesNewRules() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{"Industry": "Energy"}},
		{ID: "acc-2", RecordType: "Account", Fields: map[string]interface{}{"Phone": "555"}},
		{ID: "acc-3", RecordType: "Account", Fields: map[string]interface{}{}},
		{ID: "con-1", RecordType: "Contact", Fields: map[string]interface{}{}},
	})
	s.Require().NoError(err)

	_, err = s.store.ReplaceRules(s.ctx, "Account", []rulestore.FieldRuleInput{
		{FieldName: "Industry", Weight: 5},
	})
	s.Require().NoError(err)

	scheduler := NewRescoreScheduler(s.records, s.scorer, nil, RescoreConfig{BatchSize: 2, Concurrency: 2})
	report, err := scheduler.RescoreAll(s.ctx)
	s.Require().NoError(err)
	s.True(report.Executed)
	s.Equal(2, report.RecordTypes)
	s.Equal(4, report.Records)
	s.Equal(3, report.PerType["Account"])

	expected := map[string]int{"acc-1": 100, "acc-2": 0, "acc-3": 0, "con-1": 100}
	for id, score := range expected {
		record, err := s.records.GetRecord(s.ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(record.Score, id)
		s.Equal(score, *record.Score, id)
	}
}

// TestRescore_SkipsRecordsSavedAfterBatchRead 读取批次后被重新保存的记录不被旧字段的分数覆盖
func (s *RecordScoringTestSuite) TestRescore_SkipsRecordsSavedAfterBatchRead() {
	_, _, err := s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{}},
		{ID: "acc-2", RecordType: "Account", Fields: map[string]interface{}{}},
	})
	s.Require().NoError(err)

	set, err := s.store.GetRuleSet(s.ctx, "Account")
	s.Require().NoError(err)
	batch, err := s.records.nextBatch(s.ctx, "Account", "", 10)
	s.Require().NoError(err)
	s.Require().Len(batch, 2)

	// 批次读取后记录被重新保存，分数为100
	_, _, err = s.records.SaveRecords(s.ctx, []RecordInput{
		{ID: "acc-1", RecordType: "Account", Fields: map[string]interface{}{
			"Phone": "555", "Industry": "Energy", "Website": "example.com",
		}},
	})
	s.Require().NoError(err)

	scorable := make([]Record, len(batch))
	for i := range batch {
		scorable[i] = &batch[i]
	}
	events := s.scorer.ScoreAgainst(s.ctx, set, scorable)
	s.Len(events, 2)

	applied, err := s.records.updateScores(s.ctx, batch)
	s.Require().NoError(err)
	s.False(applied["acc-1"])
	s.True(applied["acc-2"])

	fresh, err := s.records.GetRecord(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Require().NotNil(fresh.Score)
	s.Equal(100, *fresh.Score)
	s.Equal(1, len(appliedEvents(events, applied)))
}

// TestRescoreAll_SkipsWhenLocked 锁被占用时跳过执行
func (s *RecordScoringTestSuite) TestRescoreAll_SkipsWhenLocked() {
	scheduler := NewRescoreScheduler(s.records, s.scorer, lockedLock{}, RescoreConfig{})

	report, err := scheduler.RescoreAll(s.ctx)
	s.Require().NoError(err)
	s.False(report.Executed)
	s.Equal(0, report.Records)
}

// TestRescoreScheduler_StartStop 调度器启动与停止
func (s *RecordScoringTestSuite) TestRescoreScheduler_StartStop() {
	scheduler := NewRescoreScheduler(s.records, s.scorer, nil, RescoreConfig{CronExpression: "0 */5 * * * *"})
	s.Require().NoError(scheduler.Start())
	s.Error(scheduler.Start())
	scheduler.Stop()

	bad := NewRescoreScheduler(s.records, s.scorer, nil, RescoreConfig{CronExpression: "not a cron"})
	s.Error(bad.Start())
}

// lockedLock 始终被其他实例持有的锁
type lockedLock struct{}

func (lockedLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, nil
}

func (lockedLock) Unlock(ctx context.Context, key string) error {
	return nil
}

func (lockedLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}
