/*
 * @module service/record_scoring/record_service
 * @description 被监控记录的批量保存与查询，保存前执行评分钩子
 * @architecture 分层架构 - 业务服务层
 * @documentReference SPEC_FULL.md
 * @stateFlow 输入校验 -> 评分钩子 -> 事务内批量upsert -> 提交后发布评分事件 -> 返回带分数的记录
 * @rules 评分失败的记录仍然保存且保留已有分数；一批记录在同一事务中写入；事务失败不发布事件
 * @dependencies gorm.io/gorm, service/models
 * @refs service/record_scoring/scoring_service.go, api/controllers/record_controller.go
 */

package record_scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"recordquality-service/service/models"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("记录不存在")
	// ErrInvalidRecord 记录输入不合法
	ErrInvalidRecord = errors.New("记录输入不合法")
)

// RecordInput 记录保存输入
type RecordInput struct {
	ID         string                 `json:"id,omitempty" example:"acc-001"`
	RecordType string                 `json:"record_type" example:"Account"`
	Fields     map[string]interface{} `json:"fields"`
	UpdatedBy  string                 `json:"updated_by,omitempty"`
}

// RecordService 记录服务
type RecordService struct {
	db     *gorm.DB
	scorer *ScoringService
}

// NewRecordService 创建记录服务
func NewRecordService(db *gorm.DB, scorer *ScoringService) *RecordService {
	return &RecordService{db: db, scorer: scorer}
}

// SaveRecords 评分并保存一批记录
func (s *RecordService) SaveRecords(ctx context.Context, inputs []RecordInput) ([]models.MonitoredRecord, ScoringSummary, error) {
	records := make([]models.MonitoredRecord, 0, len(inputs))
	for i, input := range inputs {
		recordType := strings.TrimSpace(input.RecordType)
		if recordType == "" {
			return nil, ScoringSummary{}, fmt.Errorf("%w: 第%d条记录缺少记录类型", ErrInvalidRecord, i+1)
		}
		fields := input.Fields
		if fields == nil {
			fields = map[string]interface{}{}
		}
		updatedBy := input.UpdatedBy
		if updatedBy == "" {
			updatedBy = "system"
		}
		records = append(records, models.MonitoredRecord{
			ID:         strings.TrimSpace(input.ID),
			RecordType: recordType,
			Fields:     models.JSONB(fields),
			CreatedBy:  updatedBy,
			UpdatedBy:  updatedBy,
		})
	}
	if len(records) == 0 {
		return records, ScoringSummary{}, nil
	}

	scorable := make([]Record, len(records))
	for i := range records {
		scorable[i] = &records[i]
	}
	summary, events := s.scorer.ScoreRecords(ctx, scorable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: upsertAssignments(),
		}).Create(&records).Error
	})
	if err != nil {
		return nil, summary, fmt.Errorf("保存记录失败: %w", err)
	}

	slog.Info("记录已保存", "count", len(records), "scored", summary.Scored, "skipped", summary.Skipped)
	s.scorer.PublishEvents(ctx, events)
	return records, summary, nil
}

// upsertAssignments 冲突时的更新列
// 本次未评分的记录保留已有分数，修订号递增使进行中的重评分放弃写回
func upsertAssignments() clause.Set {
	set := clause.AssignmentColumns([]string{"record_type", "fields", "updated_at", "updated_by"})
	return append(set,
		clause.Assignment{Column: clause.Column{Name: "score"}, Value: gorm.Expr("COALESCE(excluded.score, monitored_records.score)")},
		clause.Assignment{Column: clause.Column{Name: "score_timestamp"}, Value: gorm.Expr("COALESCE(excluded.score_timestamp, monitored_records.score_timestamp)")},
		clause.Assignment{Column: clause.Column{Name: "revision"}, Value: gorm.Expr("monitored_records.revision + 1")},
	)
}

// GetRecord 获取记录
func (s *RecordService) GetRecord(ctx context.Context, id string) (*models.MonitoredRecord, error) {
	var record models.MonitoredRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	return &record, nil
}

// ListRecords 分页查询记录，recordType 为空时查询全部
func (s *RecordService) ListRecords(ctx context.Context, recordType string, page, size int) ([]models.MonitoredRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 20
	}

	query := s.db.WithContext(ctx).Model(&models.MonitoredRecord{})
	if recordType != "" {
		query = query.Where("record_type = ?", recordType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计记录失败: %w", err)
	}

	records := []models.MonitoredRecord{}
	if err := query.Order("created_at DESC, id ASC").Offset((page - 1) * size).Limit(size).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("查询记录列表失败: %w", err)
	}
	return records, total, nil
}

// ListRecordTypes 已保存记录涉及的记录类型
func (s *RecordService) ListRecordTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := s.db.WithContext(ctx).Model(&models.MonitoredRecord{}).
		Distinct("record_type").
		Order("record_type ASC").
		Pluck("record_type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("查询记录类型失败: %w", err)
	}
	return types, nil
}

// nextBatch 按ID顺序读取同类型记录的下一批
func (s *RecordService) nextBatch(ctx context.Context, recordType, afterID string, size int) ([]models.MonitoredRecord, error) {
	var batch []models.MonitoredRecord
	err := s.db.WithContext(ctx).
		Where("record_type = ? AND id > ?", recordType, afterID).
		Order("id ASC").
		Limit(size).
		Find(&batch).Error
	if err != nil {
		return nil, fmt.Errorf("读取记录批次失败: %w", err)
	}
	return batch, nil
}

// updateScores 只写回分数与评分时间，返回实际写回的记录ID
// 读取批次后被重新保存的记录修订号已变化，跳过写回以免覆盖新分数
func (s *RecordService) updateScores(ctx context.Context, records []models.MonitoredRecord) (map[string]bool, error) {
	applied := make(map[string]bool, len(records))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			result := tx.Model(&models.MonitoredRecord{}).
				Where("id = ? AND revision = ?", record.ID, record.Revision).
				Updates(map[string]interface{}{
					"score":           record.Score,
					"score_timestamp": record.ScoreTimestamp,
					"updated_at":      time.Now(),
				})
			if result.Error != nil {
				return fmt.Errorf("更新记录分数失败[%s]: %w", record.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				slog.Debug("记录已被重新保存，跳过分数写回", "id", record.ID)
				continue
			}
			applied[record.ID] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}
