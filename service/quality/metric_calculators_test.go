/*
 * @module service/quality/metric_calculators_test
 * @description 六维指标计算器测试,基于内存数据库的真实SQL探针
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 样例表构造 -> 指标计算 -> 分值与来源标记验证
 * @rules 使用内存sqlite复现各维度的边界场景
 * @dependencies testing, github.com/stretchr/testify/assert, testutil
 * @refs metric_calculators.go
 */

package quality

import (
	"context"
	"testing"
	"time"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"
	"dataquality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCalculator(t *testing.T) (*testutil.TestDB, *catalog.Service, *MetricCalculator) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	catalogService := catalog.NewService(tdb.DB)
	calculator := NewMetricCalculator(tdb.DB, NewNameHeuristicClassifier())
	return tdb, catalogService, calculator
}

func TestCalculate_UsersFixture(t *testing.T) {
	// 100行: 10行邮箱为NULL,5行邮箱格式非法,其余合法
	tdb, catalogService, calculator := setupCalculator(t)
	tdb.CreateUsersTable("users", testutil.MakeUserRows(100, 10, 5))

	meta, err := catalogService.DescribeTable(context.Background(), "users")
	require.NoError(t, err)
	require.Equal(t, int64(100), meta.RowCount)

	metrics := calculator.Calculate(context.Background(), meta)

	// 完整性: 最差列为邮箱, 100*(1-10/100)=90
	assert.Equal(t, 90, metrics.Completeness)
	// 唯一性: 邮箱列90个非空去重值, 100*90/100=90
	assert.Equal(t, 90, metrics.Uniqueness)
	// 有效性: 非空样本90个中5个非法, 100*(1-5/90)=94.44 -> 94
	assert.Equal(t, 94, metrics.Validity)
	// 准确性: 电话列全部合法
	assert.Equal(t, 100, metrics.Accuracy)
	// 一致性: 无首尾空白污染
	assert.Equal(t, 100, metrics.Consistency)
	// 时效性: 全部行在新鲜度窗口内
	assert.Equal(t, 100, metrics.Timeliness)

	// 该表六个维度全部可测
	for _, name := range []string{
		models.MetricCompleteness, models.MetricAccuracy, models.MetricConsistency,
		models.MetricValidity, models.MetricUniqueness, models.MetricTimeliness,
	} {
		assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[name], name)
	}
}

func TestCalculate_EmptyTable(t *testing.T) {
	// 零行表视为完全完整
	tdb, catalogService, calculator := setupCalculator(t)
	tdb.CreateUsersTable("empty_users", nil)

	meta, err := catalogService.DescribeTable(context.Background(), "empty_users")
	require.NoError(t, err)
	require.Equal(t, int64(0), meta.RowCount)

	metrics := calculator.Calculate(context.Background(), meta)
	for name, value := range metrics.Values() {
		assert.Equal(t, 100, value, name)
	}

	// 零行表未执行任何条件探针,对应维度标记为 unavailable
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricAccuracy])
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricConsistency])
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricTimeliness])
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricCompleteness])
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricUniqueness])
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricValidity])
}

func TestCalculate_UnavailableDimensions(t *testing.T) {
	// 纯数值表: 无电话/文本/时间列,对应维度标记为 unavailable 且不压低分值
	tdb, catalogService, calculator := setupCalculator(t)
	require.NoError(t, tdb.DB.Exec(`CREATE TABLE metric_samples (id INTEGER PRIMARY KEY, amount REAL, total INTEGER)`).Error)
	for i := 0; i < 10; i++ {
		require.NoError(t, tdb.DB.Exec(`INSERT INTO metric_samples (amount, total) VALUES (?, ?)`, float64(i), i).Error)
	}

	meta, err := catalogService.DescribeTable(context.Background(), "metric_samples")
	require.NoError(t, err)

	metrics := calculator.Calculate(context.Background(), meta)
	assert.Equal(t, 100, metrics.Accuracy)
	assert.Equal(t, 100, metrics.Consistency)
	assert.Equal(t, 100, metrics.Timeliness)
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricAccuracy])
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricConsistency])
	assert.Equal(t, models.MetricSourceUnavailable, metrics.Sources[models.MetricTimeliness])

	// 完整性/唯一性/有效性始终可测
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricCompleteness])
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricUniqueness])
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricValidity])
}

func TestCalculate_DuplicateIdentifiers(t *testing.T) {
	// 标识列重复压低唯一性
	tdb, catalogService, calculator := setupCalculator(t)
	require.NoError(t, tdb.DB.Exec(`CREATE TABLE dup_orders (order_id INTEGER, note TEXT)`).Error)
	for i := 0; i < 10; i++ {
		require.NoError(t, tdb.DB.Exec(`INSERT INTO dup_orders (order_id, note) VALUES (?, 'ok')`, i%5).Error)
	}

	meta, err := catalogService.DescribeTable(context.Background(), "dup_orders")
	require.NoError(t, err)

	metrics := calculator.Calculate(context.Background(), meta)
	// 5个去重值/10行 = 50
	assert.Equal(t, 50, metrics.Uniqueness)
}

func TestCalculate_PaddedTextLowersConsistency(t *testing.T) {
	tdb, catalogService, calculator := setupCalculator(t)
	require.NoError(t, tdb.DB.Exec(`CREATE TABLE padded_names (id INTEGER PRIMARY KEY, name TEXT)`).Error)
	values := []string{"alice", " bob", "carol ", "dave", " eve "}
	for _, value := range values {
		require.NoError(t, tdb.DB.Exec(`INSERT INTO padded_names (name) VALUES (?)`, value).Error)
	}

	meta, err := catalogService.DescribeTable(context.Background(), "padded_names")
	require.NoError(t, err)

	metrics := calculator.Calculate(context.Background(), meta)
	// 5个非空值中3个有首尾空白, 100*(1-3/5)=40
	assert.Equal(t, 40, metrics.Consistency)
	assert.Equal(t, models.MetricSourceMeasured, metrics.Sources[models.MetricConsistency])
}

func TestNewMetricCalculator_ProbeTimeoutFromEnv(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	// 默认30秒
	calculator := NewMetricCalculator(tdb.DB, NewNameHeuristicClassifier())
	assert.Equal(t, 30*time.Second, calculator.probeTimeout)

	t.Setenv("QUALITY_PROBE_TIMEOUT_SECONDS", "5")
	calculator = NewMetricCalculator(tdb.DB, NewNameHeuristicClassifier())
	assert.Equal(t, 5*time.Second, calculator.probeTimeout)
}

func TestCalculate_ExpiredContextAbsorbed(t *testing.T) {
	// 探针查询携带有界超时;已到期的上下文使所有探针失败,失败被逐列吸收
	tdb, catalogService, calculator := setupCalculator(t)
	tdb.CreateUsersTable("users", testutil.MakeUserRows(10, 5, 0))

	meta, err := catalogService.DescribeTable(context.Background(), "users")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics := calculator.Calculate(ctx, meta)
	// 探针全部失败时分值保持100封顶,不产生伪造的低分
	assert.Equal(t, 100, metrics.Completeness)
	assert.Equal(t, 100, metrics.Uniqueness)
}

func TestValidators(t *testing.T) {
	assert.True(t, isValidEmail("user@example.com"))
	assert.True(t, isValidEmail("first.last+tag@sub.example.cn"))
	assert.False(t, isValidEmail("not-an-email"))
	assert.False(t, isValidEmail("user@nodot"))

	assert.True(t, isValidPhone("13812345678"))
	assert.True(t, isValidPhone("138-1234-5678"))
	assert.False(t, isValidPhone("12812345678"))
	assert.False(t, isValidPhone("1381234"))
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 94, roundScore(94.44))
	assert.Equal(t, 95, roundScore(94.5))
	assert.Equal(t, 0, roundScore(-3))
	assert.Equal(t, 100, roundScore(101))
}
