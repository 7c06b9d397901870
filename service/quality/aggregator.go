/*
 * @module service/quality/aggregator
 * @description 全库评估聚合器,以有界工作池并发执行逐表评估,容忍单表失败并聚合全库指标
 * @architecture 工作池模式 - 聚合阶段作为屏障等待所有表的结果
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 表清单获取 -> 工作池并发评估 -> 屏障汇聚 -> 全库指标均值 -> 汇总结果
 * @rules 单表失败记录为失败桩而不中断批次;全库指标为成功表的算术平均,零成功时全部记0;
 *        空目录是合法的成功空结果;聚合必须等所有表的结局明确后才开始
 * @dependencies gorm.io/gorm, sync
 * @refs service/quality/table_assessor.go, service/catalog/
 */

package quality

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"
)

const defaultWorkerCount = 4

// Aggregator 全库评估聚合器
type Aggregator struct {
	catalog  *catalog.Service
	assessor *TableAssessor
	workers  int
}

// NewAggregator 创建全库评估聚合器实例
// 工作池大小取 QUALITY_WORKERS 环境变量,默认与连接池默认容量一致
func NewAggregator(catalogService *catalog.Service, assessor *TableAssessor) *Aggregator {
	workers := defaultWorkerCount
	if val := os.Getenv("QUALITY_WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			workers = parsed
		}
	}

	return &Aggregator{
		catalog:  catalogService,
		assessor: assessor,
		workers:  workers,
	}
}

// AssessAll 对目录中的全部表执行评估并聚合为全库结果
// 仅存储不可用错误向上传播;任何单表失败都被记录为失败桩
func (g *Aggregator) AssessAll(ctx context.Context) (*models.CatalogAssessment, error) {
	tables, err := g.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	// 按目录顺序预留结果槽位,逐表结果的顺序与目录一致
	results := make([]models.TableAssessment, len(tables))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := g.workers
	if workers > len(tables) {
		workers = len(tables)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = g.assessOne(ctx, tables[idx])
			}
		}()
	}

	for idx := range tables {
		jobs <- idx
	}
	close(jobs)

	// 屏障: 所有表的结局明确后才开始聚合
	wg.Wait()

	return g.aggregate(results), nil
}

// assessOne 评估单表,失败时返回失败桩
func (g *Aggregator) assessOne(ctx context.Context, name string) models.TableAssessment {
	assessment, err := g.assessor.AssessTable(ctx, name, "full")
	if err != nil {
		slog.Warn("单表评估失败,记录为失败桩", "table", name, "error", err)
		return models.TableAssessment{
			TableName:    name,
			Status:       models.AssessmentStatusFailed,
			ErrorMessage: err.Error(),
			AssessedAt:   time.Now(),
		}
	}
	return *assessment
}

// aggregate 汇聚逐表结果为全库评估
func (g *Aggregator) aggregate(results []models.TableAssessment) *models.CatalogAssessment {
	assessment := &models.CatalogAssessment{
		TotalTables:           len(results),
		Issues:                make([]models.QualityIssue, 0),
		Recommendations:       make([]models.Recommendation, 0),
		IndividualAssessments: results,
		AssessedAt:            time.Now(),
	}

	sums := make(map[string]int)
	for _, result := range results {
		if result.Status != models.AssessmentStatusCompleted {
			assessment.FailedAssessments++
			continue
		}

		assessment.SuccessfulAssessments++
		assessment.TotalRows += result.RowCount
		assessment.TotalColumns += result.ColumnCount
		assessment.Issues = append(assessment.Issues, result.Issues...)
		assessment.Recommendations = append(assessment.Recommendations, result.Recommendations...)

		for name, value := range result.Metrics.Values() {
			sums[name] += value
		}
	}

	// 全库指标为成功表的算术平均,零成功时全部为0
	if assessment.SuccessfulAssessments > 0 {
		mean := func(name string) int {
			return int(math.Round(float64(sums[name]) / float64(assessment.SuccessfulAssessments)))
		}
		assessment.Metrics = models.MetricSet{
			Completeness: mean(models.MetricCompleteness),
			Accuracy:     mean(models.MetricAccuracy),
			Consistency:  mean(models.MetricConsistency),
			Validity:     mean(models.MetricValidity),
			Uniqueness:   mean(models.MetricUniqueness),
			Timeliness:   mean(models.MetricTimeliness),
		}
		assessment.OverallScore = ComposeOverall(assessment.Metrics)
	}
	assessment.Band = ClassifyBand(assessment.OverallScore)

	return assessment
}
