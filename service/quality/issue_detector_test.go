/*
 * @module service/quality/issue_detector_test
 * @description 质量问题检测器测试,不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 指标集输入 -> 阈值规则匹配 -> 问题列表验证
 * @rules 验证阈值边界、严重程度判定与受影响记录估算的确定性
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs issue_detector.go
 */

package quality

import (
	"testing"

	"dataquality-service/service/models"

	"github.com/stretchr/testify/assert"
)

// 全满指标,便于单点降低某个维度
func perfectMetrics() models.MetricSet {
	return models.MetricSet{
		Completeness: 100, Accuracy: 100, Consistency: 100,
		Validity: 100, Uniqueness: 100, Timeliness: 100,
	}
}

func TestDetectIssues_NoIssuesAtThreshold(t *testing.T) {
	// 恰好等于阈值时不产生问题
	metrics := perfectMetrics()
	metrics.Completeness = 90
	metrics.Uniqueness = 95
	metrics.Validity = 90
	metrics.Consistency = 85

	issues := DetectIssues("users", metrics)
	assert.Empty(t, issues)
}

func TestDetectIssues_CompletenessBelowThreshold(t *testing.T) {
	metrics := perfectMetrics()
	metrics.Completeness = 72

	issues := DetectIssues("users", metrics)
	assert.Len(t, issues, 1)
	assert.Equal(t, models.IssueTypeMissingData, issues[0].Type)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)
	// 估算受影响记录: (100-72)*10
	assert.Equal(t, int64(280), issues[0].AffectedEstimate)
	assert.Equal(t, "users", issues[0].Table)
}

func TestDetectIssues_SeverityByMargin(t *testing.T) {
	// 低于阈值但未跌破高严重度线时为 medium
	metrics := perfectMetrics()
	metrics.Completeness = 85

	issues := DetectIssues("orders", metrics)
	assert.Len(t, issues, 1)
	assert.Equal(t, models.SeverityMedium, issues[0].Severity)

	// 跌破高严重度线后升为 high
	metrics.Completeness = 79
	issues = DetectIssues("orders", metrics)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)
}

func TestDetectIssues_MultipleIssuesInFixedOrder(t *testing.T) {
	metrics := perfectMetrics()
	metrics.Completeness = 60
	metrics.Uniqueness = 80
	metrics.Validity = 70
	metrics.Consistency = 50

	issues := DetectIssues("users", metrics)
	assert.Len(t, issues, 4)
	// 输出顺序固定: 完整性 -> 唯一性 -> 有效性 -> 一致性
	assert.Equal(t, models.IssueTypeMissingData, issues[0].Type)
	assert.Equal(t, models.IssueTypeDuplicateRecords, issues[1].Type)
	assert.Equal(t, models.IssueTypeInvalidFormat, issues[2].Type)
	assert.Equal(t, models.IssueTypeInconsistentValues, issues[3].Type)

	// 各类型的估算系数
	assert.Equal(t, int64(400), issues[0].AffectedEstimate)
	assert.Equal(t, int64(100), issues[1].AffectedEstimate)
	assert.Equal(t, int64(240), issues[2].AffectedEstimate)
	assert.Equal(t, int64(300), issues[3].AffectedEstimate)
}

func TestDetectIssues_Deterministic(t *testing.T) {
	metrics := perfectMetrics()
	metrics.Validity = 83

	first := DetectIssues("users", metrics)
	second := DetectIssues("users", metrics)
	assert.Equal(t, first, second)
}
