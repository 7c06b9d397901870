/*
 * @module service/quality/table_assessor
 * @description 单表评估编排器,串联目录读取、指标计算、评分合成、问题检测、建议生成与结果持久化
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 表描述 -> 指标计算 -> 评分合成 -> 问题检测 -> 建议生成 -> 结果持久化
 * @rules 持久化失败不影响评估结果返回,仅记录日志;表不存在错误向上传播;探针级失败在指标计算内被吸收
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/catalog/, service/quality/
 */

package quality

import (
	"context"
	"log/slog"
	"time"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"
	"dataquality-service/service/monitoring"

	"github.com/google/uuid"
)

// TableAssessor 单表评估编排器
type TableAssessor struct {
	catalog    *catalog.Service
	calculator *MetricCalculator
	store      *AssessmentStore
}

// NewTableAssessor 创建单表评估编排器实例
func NewTableAssessor(catalogService *catalog.Service, calculator *MetricCalculator, store *AssessmentStore) *TableAssessor {
	return &TableAssessor{
		catalog:    catalogService,
		calculator: calculator,
		store:      store,
	}
}

// AssessTable 对单表执行完整质量评估并持久化结果
// 返回的评估结果一旦生成即不可变;持久化失败时结果仍然返回
func (a *TableAssessor) AssessTable(ctx context.Context, name, assessmentType string) (*models.TableAssessment, error) {
	startTime := time.Now()

	if assessmentType == "" {
		assessmentType = "full"
	}

	meta, err := a.catalog.DescribeTable(ctx, name)
	if err != nil {
		monitoring.RecordAssessment(models.AssessmentStatusFailed, time.Since(startTime).Seconds())
		return nil, err
	}

	metrics := a.calculator.Calculate(ctx, meta)
	overallScore := ComposeOverall(metrics)
	issues := DetectIssues(name, metrics)
	recommendations := GenerateRecommendations(issues, overallScore)

	assessment := &models.TableAssessment{
		ID:              uuid.New().String(),
		TableName:       name,
		AssessmentType:  assessmentType,
		Metrics:         metrics,
		OverallScore:    overallScore,
		Band:            ClassifyBand(overallScore),
		Issues:          issues,
		Recommendations: recommendations,
		Status:          models.AssessmentStatusCompleted,
		RowCount:        meta.RowCount,
		ColumnCount:     len(meta.Columns),
		AssessedAt:      time.Now(),
	}

	// 持久化失败非致命,调用方不能假定评估成功即已落库
	if _, err := a.store.Save(ctx, assessment); err != nil {
		slog.Error("评估结果持久化失败", "table", name, "error", err)
	}

	monitoring.RecordAssessment(models.AssessmentStatusCompleted, time.Since(startTime).Seconds())
	return assessment, nil
}
