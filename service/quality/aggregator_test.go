/*
 * @module service/quality/aggregator_test
 * @description 全库评估聚合器测试
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 多表构造 -> 并发全库评估 -> 聚合结果验证
 * @rules 验证逐表结果顺序、失败桩容忍、空目录与全败场景
 * @dependencies testing, github.com/stretchr/testify/assert, testutil
 * @refs aggregator.go
 */

package quality

import (
	"context"
	"testing"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"
	"dataquality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAggregator(t *testing.T) (*testutil.TestDB, *Aggregator) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	catalogService := catalog.NewService(tdb.DB)
	calculator := NewMetricCalculator(tdb.DB, NewNameHeuristicClassifier())
	store := NewAssessmentStore(tdb.DB)
	assessor := NewTableAssessor(catalogService, calculator, store)
	return tdb, NewAggregator(catalogService, assessor)
}

func TestAssessAll_MultipleTables(t *testing.T) {
	tdb, aggregator := setupAggregator(t)
	tdb.CreateUsersTable("customers", testutil.MakeUserRows(50, 0, 0))
	tdb.CreateUsersTable("subscribers", testutil.MakeUserRows(20, 0, 0))
	tdb.CreateUsersTable("vendors", testutil.MakeUserRows(30, 0, 0))

	assessment, err := aggregator.AssessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, assessment.TotalTables)
	assert.Equal(t, 3, assessment.SuccessfulAssessments)
	assert.Equal(t, 0, assessment.FailedAssessments)
	assert.Equal(t, int64(100), assessment.TotalRows)
	assert.Equal(t, 15, assessment.TotalColumns)

	// 逐表结果与目录顺序一致(字母序)
	require.Len(t, assessment.IndividualAssessments, 3)
	assert.Equal(t, "customers", assessment.IndividualAssessments[0].TableName)
	assert.Equal(t, "subscribers", assessment.IndividualAssessments[1].TableName)
	assert.Equal(t, "vendors", assessment.IndividualAssessments[2].TableName)

	// 全部数据干净,六指标满分
	assert.Equal(t, 100, assessment.OverallScore)
	assert.Equal(t, BandExcellent, assessment.Band)
	assert.Empty(t, assessment.Issues)
}

func TestAssessAll_ToleratesSingleTableFailure(t *testing.T) {
	// 非法标识符表名在目录中可见但无法评估,记为失败桩
	tdb, aggregator := setupAggregator(t)
	tdb.CreateUsersTable("customers", testutil.MakeUserRows(10, 0, 0))
	tdb.CreateUsersTable("vendors", testutil.MakeUserRows(10, 0, 0))
	require.NoError(t, tdb.DB.Exec(`CREATE TABLE "bad-table" (id INTEGER)`).Error)

	assessment, err := aggregator.AssessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, assessment.TotalTables)
	assert.Equal(t, 2, assessment.SuccessfulAssessments)
	assert.Equal(t, 1, assessment.FailedAssessments)

	var failed *models.TableAssessment
	for i := range assessment.IndividualAssessments {
		if assessment.IndividualAssessments[i].Status == models.AssessmentStatusFailed {
			failed = &assessment.IndividualAssessments[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "bad-table", failed.TableName)
	assert.NotEmpty(t, failed.ErrorMessage)

	// 聚合指标仅来自成功表
	assert.Equal(t, 100, assessment.Metrics.Completeness)
}

func TestAssessAll_EmptyCatalog(t *testing.T) {
	// 空目录是合法的成功空结果
	_, aggregator := setupAggregator(t)

	assessment, err := aggregator.AssessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, assessment.TotalTables)
	assert.Equal(t, 0, assessment.SuccessfulAssessments)
	assert.Equal(t, 0, assessment.OverallScore)
	assert.Equal(t, BandPoor, assessment.Band)
	assert.Empty(t, assessment.IndividualAssessments)
	assert.Empty(t, assessment.Issues)
}

func TestAssessAll_AllFailed(t *testing.T) {
	// 零成功时全库指标全部为0
	tdb, aggregator := setupAggregator(t)
	require.NoError(t, tdb.DB.Exec(`CREATE TABLE "1bad" (id INTEGER)`).Error)

	assessment, err := aggregator.AssessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, assessment.TotalTables)
	assert.Equal(t, 0, assessment.SuccessfulAssessments)
	assert.Equal(t, 1, assessment.FailedAssessments)
	assert.Equal(t, models.MetricSet{}, assessment.Metrics)
	assert.Equal(t, 0, assessment.OverallScore)
}
