/*
 * @module service/quality/metric_calculators
 * @description 六维质量指标计算器,对单表执行完整性、唯一性、有效性、准确性、一致性、时效性探测
 * @architecture 策略模式 - 每个维度独立探测,互不依赖
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 表元数据输入 -> 逐列探针查询 -> 最差值合成 -> 指标集输出
 * @rules 指标从 100 封顶只降不升,取所有参与列的最小值;单个探针失败记录日志后跳过,不中断整表评估;
 *        准确性/一致性/时效性在表中缺少可测信号时标记为 unavailable 并记 100,不以伪造分值冒充测量结果
 * @dependencies gorm.io/gorm, regexp
 * @refs service/catalog/, service/models/
 */

package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"time"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"

	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
var phoneCleanPattern = regexp.MustCompile(`\D`)

const defaultFreshnessDays = 30
const defaultSampleLimit = 10000
const defaultProbeTimeoutSeconds = 30

// MetricCalculator 指标计算器,通过只读SQL探针统计单表各维度质量
type MetricCalculator struct {
	db           *gorm.DB
	classifier   ColumnClassifier
	freshness    time.Duration
	sampleLimit  int
	probeTimeout time.Duration
}

// NewMetricCalculator 创建指标计算器实例
// 时效性探测的新鲜度窗口取 QUALITY_FRESHNESS_DAYS 环境变量,默认30天;
// 单个探针查询的超时取 QUALITY_PROBE_TIMEOUT_SECONDS 环境变量,默认30秒
func NewMetricCalculator(db *gorm.DB, classifier ColumnClassifier) *MetricCalculator {
	days := defaultFreshnessDays
	if val := os.Getenv("QUALITY_FRESHNESS_DAYS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			days = parsed
		}
	}

	timeoutSeconds := defaultProbeTimeoutSeconds
	if val := os.Getenv("QUALITY_PROBE_TIMEOUT_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			timeoutSeconds = parsed
		}
	}

	return &MetricCalculator{
		db:           db,
		classifier:   classifier,
		freshness:    time.Duration(days) * 24 * time.Hour,
		sampleLimit:  defaultSampleLimit,
		probeTimeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// probeQuery 在有界超时内执行单个探针查询
func (c *MetricCalculator) probeQuery(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	return c.db.WithContext(probeCtx).Raw(sql, args...).Scan(dest).Error
}

// Calculate 计算单表的六维指标集
// 各维度相互独立,任意顺序执行均可
func (c *MetricCalculator) Calculate(ctx context.Context, meta *catalog.TableMetadata) models.MetricSet {
	metrics := models.MetricSet{Sources: make(map[string]string)}

	metrics.Completeness = c.calculateCompleteness(ctx, meta)
	metrics.Sources[models.MetricCompleteness] = models.MetricSourceMeasured

	metrics.Uniqueness = c.calculateUniqueness(ctx, meta)
	metrics.Sources[models.MetricUniqueness] = models.MetricSourceMeasured

	metrics.Validity = c.calculateValidity(ctx, meta)
	metrics.Sources[models.MetricValidity] = models.MetricSourceMeasured

	metrics.Accuracy, metrics.Sources[models.MetricAccuracy] = c.calculateAccuracy(ctx, meta)
	metrics.Consistency, metrics.Sources[models.MetricConsistency] = c.calculateConsistency(ctx, meta)
	metrics.Timeliness, metrics.Sources[models.MetricTimeliness] = c.calculateTimeliness(ctx, meta)

	return metrics
}

// calculateCompleteness 完整性: 每列 100×(1−空值数/行数),取所有列最小值
// 零行表视为完全完整
func (c *MetricCalculator) calculateCompleteness(ctx context.Context, meta *catalog.TableMetadata) int {
	if meta.RowCount == 0 {
		return 100
	}

	score := 100.0
	for _, col := range meta.Columns {
		var nullCount int64
		err := c.probeQuery(ctx, &nullCount,
			fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE %q IS NULL`, meta.Name, col.Name))
		if err != nil {
			slog.Warn("完整性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}

		colScore := 100 * (1 - float64(nullCount)/float64(meta.RowCount))
		score = math.Min(score, colScore)
	}

	return roundScore(score)
}

// calculateUniqueness 唯一性: 标识列 100×去重数/行数,取最小值;无标识列记100
func (c *MetricCalculator) calculateUniqueness(ctx context.Context, meta *catalog.TableMetadata) int {
	if meta.RowCount == 0 {
		return 100
	}

	score := 100.0
	for _, col := range meta.Columns {
		if !c.classifier.IsIdentifier(col) {
			continue
		}

		var distinctCount int64
		err := c.probeQuery(ctx, &distinctCount,
			fmt.Sprintf(`SELECT COUNT(DISTINCT %q) FROM %q`, col.Name, meta.Name))
		if err != nil {
			slog.Warn("唯一性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}

		colScore := 100 * float64(distinctCount) / float64(meta.RowCount)
		score = math.Min(score, colScore)
	}

	return roundScore(score)
}

// calculateValidity 有效性: 邮箱列 100×(1−格式非法数/非空数),取最小值;无邮箱列记100
func (c *MetricCalculator) calculateValidity(ctx context.Context, meta *catalog.TableMetadata) int {
	if meta.RowCount == 0 {
		return 100
	}

	score := 100.0
	for _, col := range meta.Columns {
		if !c.classifier.IsEmail(col) {
			continue
		}

		colScore, err := c.sampleFormatScore(ctx, meta.Name, col.Name, isValidEmail)
		if err != nil {
			slog.Warn("有效性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}
		score = math.Min(score, colScore)
	}

	return roundScore(score)
}

// calculateAccuracy 准确性: 对分类器识别出的语义列(电话)做格式符合度检查,取最小值
// 零行表或没有任何可校验的语义列时未执行探针,记 unavailable
func (c *MetricCalculator) calculateAccuracy(ctx context.Context, meta *catalog.TableMetadata) (int, string) {
	if meta.RowCount == 0 {
		return 100, models.MetricSourceUnavailable
	}

	score := 100.0
	measured := false
	for _, col := range meta.Columns {
		if !c.classifier.IsPhone(col) {
			continue
		}

		colScore, err := c.sampleFormatScore(ctx, meta.Name, col.Name, isValidPhone)
		if err != nil {
			slog.Warn("准确性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}
		measured = true
		score = math.Min(score, colScore)
	}

	if !measured {
		return 100, models.MetricSourceUnavailable
	}
	return roundScore(score), models.MetricSourceMeasured
}

// calculateConsistency 一致性: 文本列 100×(1−首尾空白污染数/非空数),取最小值
// 零行表或没有文本列时未执行探针,记 unavailable
func (c *MetricCalculator) calculateConsistency(ctx context.Context, meta *catalog.TableMetadata) (int, string) {
	if meta.RowCount == 0 {
		return 100, models.MetricSourceUnavailable
	}

	score := 100.0
	measured := false
	for _, col := range meta.Columns {
		if !c.classifier.IsText(col) {
			continue
		}

		var counts struct {
			NonNull int64
			Padded  int64
		}
		err := c.probeQuery(ctx, &counts, fmt.Sprintf(
			`SELECT COUNT(%q) AS non_null, COUNT(CASE WHEN %q <> TRIM(%q) THEN 1 END) AS padded FROM %q`,
			col.Name, col.Name, col.Name, meta.Name))
		if err != nil {
			slog.Warn("一致性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}

		measured = true
		if counts.NonNull == 0 {
			continue
		}
		colScore := 100 * (1 - float64(counts.Padded)/float64(counts.NonNull))
		score = math.Min(score, colScore)
	}

	if !measured {
		return 100, models.MetricSourceUnavailable
	}
	return roundScore(score), models.MetricSourceMeasured
}

// calculateTimeliness 时效性: 时间列在新鲜度窗口内的行占比,取最小值
// 零行表或没有时间列时未执行探针,记 unavailable
func (c *MetricCalculator) calculateTimeliness(ctx context.Context, meta *catalog.TableMetadata) (int, string) {
	if meta.RowCount == 0 {
		return 100, models.MetricSourceUnavailable
	}

	cutoff := time.Now().Add(-c.freshness)
	score := 100.0
	measured := false
	for _, col := range meta.Columns {
		if !c.classifier.IsTimestamp(col) {
			continue
		}

		var freshCount int64
		err := c.probeQuery(ctx, &freshCount,
			fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE %q >= ?`, meta.Name, col.Name), cutoff)
		if err != nil {
			slog.Warn("时效性探针失败,跳过该列", "table", meta.Name, "column", col.Name, "error", err)
			continue
		}

		measured = true
		colScore := 100 * float64(freshCount) / float64(meta.RowCount)
		score = math.Min(score, colScore)
	}

	if !measured {
		return 100, models.MetricSourceUnavailable
	}
	return roundScore(score), models.MetricSourceMeasured
}

// sampleFormatScore 抽样读取非空值并按校验函数计算格式符合度得分
func (c *MetricCalculator) sampleFormatScore(ctx context.Context, table, column string, valid func(string) bool) (float64, error) {
	var values []string
	err := c.probeQuery(ctx, &values,
		fmt.Sprintf(`SELECT %q FROM %q WHERE %q IS NOT NULL LIMIT ?`, column, table, column), c.sampleLimit)
	if err != nil {
		return 0, err
	}

	if len(values) == 0 {
		return 100, nil
	}

	invalidCount := 0
	for _, value := range values {
		if !valid(value) {
			invalidCount++
		}
	}

	return 100 * (1 - float64(invalidCount)/float64(len(values))), nil
}

// isValidEmail 校验邮箱格式
func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// isValidPhone 校验手机号格式
func isValidPhone(phone string) bool {
	cleaned := phoneCleanPattern.ReplaceAllString(phone, "")
	return phonePattern.MatchString(cleaned)
}

// roundScore 四舍五入并收敛到 [0,100]
func roundScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
