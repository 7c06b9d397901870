/*
 * @module service/quality/assessment_store
 * @description 评估结果存储,负责表级评估记录的持久化与历史查询、趋势统计
 * @architecture 分层架构 - 持久化层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 评估完成 -> 记录落库 -> 历史查询/趋势分析
 * @rules 持久化记录使用服务端生成的ID,与内存评估ID相互独立;查询按评估时间倒序
 * @dependencies gorm.io/gorm, encoding/json
 * @refs service/models/, service/quality/table_assessor.go
 */

package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dataquality-service/service/models"

	"gorm.io/gorm"
)

// AssessmentStore 评估结果存储
type AssessmentStore struct {
	db *gorm.DB
}

// NewAssessmentStore 创建评估结果存储实例
func NewAssessmentStore(db *gorm.DB) *AssessmentStore {
	return &AssessmentStore{db: db}
}

// Save 持久化一条表级评估记录,返回服务端生成的记录
func (s *AssessmentStore) Save(ctx context.Context, assessment *models.TableAssessment) (*models.QualityAssessmentRecord, error) {
	record := &models.QualityAssessmentRecord{
		TableName:       assessment.TableName,
		AssessmentType:  assessment.AssessmentType,
		Metrics:         assessment.Metrics.ToJSONB(),
		Score:           assessment.OverallScore,
		Issues:          toJSONBArray(assessment.Issues),
		Recommendations: toJSONBArray(assessment.Recommendations),
		Status:          assessment.Status,
		RowCount:        assessment.RowCount,
		ColumnCount:     assessment.ColumnCount,
		AssessedAt:      assessment.AssessedAt,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("保存评估记录失败: %w", err)
	}
	return record, nil
}

// RecentAssessments 按评估时间倒序返回最近的评估记录
func (s *AssessmentStore) RecentAssessments(ctx context.Context, limit int) ([]models.QualityAssessmentRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []models.QualityAssessmentRecord
	err := s.db.WithContext(ctx).
		Order("assessed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询评估记录失败: %w", err)
	}
	return records, nil
}

// GetAssessment 按ID查询单条评估记录
func (s *AssessmentStore) GetAssessment(ctx context.Context, id string) (*models.QualityAssessmentRecord, error) {
	var record models.QualityAssessmentRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("查询评估记录 %s 失败: %w", id, err)
	}
	return &record, nil
}

// QualityTrends 统计近期评估的质量趋势
// 返回平均分、样本数与趋势方向 (improving/stable/declining)
func (s *AssessmentStore) QualityTrends(ctx context.Context, limit int) (models.JSONB, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []models.QualityAssessmentRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", models.AssessmentStatusCompleted).
		Order("assessed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询趋势数据失败: %w", err)
	}

	if len(records) == 0 {
		return models.JSONB{
			"sample_count":  0,
			"average_score": 0,
			"trend":         "stable",
			"generated_at":  time.Now(),
		}, nil
	}

	total := 0
	for _, record := range records {
		total += record.Score
	}
	average := float64(total) / float64(len(records))

	// records 为倒序,后半段是更早的样本
	trend := "stable"
	if len(records) >= 4 {
		half := len(records) / 2
		recent, earlier := 0, 0
		for i := 0; i < half; i++ {
			recent += records[i].Score
		}
		for i := half; i < len(records); i++ {
			earlier += records[i].Score
		}
		delta := float64(recent)/float64(half) - float64(earlier)/float64(len(records)-half)
		if delta > 2 {
			trend = "improving"
		} else if delta < -2 {
			trend = "declining"
		}
	}

	return models.JSONB{
		"sample_count":  len(records),
		"average_score": average,
		"trend":         trend,
		"generated_at":  time.Now(),
	}, nil
}

// toJSONBArray 将任意切片序列化为 JSONBArray
func toJSONBArray(items interface{}) models.JSONBArray {
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	var result models.JSONBArray
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
