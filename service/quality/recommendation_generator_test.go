/*
 * @module service/quality/recommendation_generator_test
 * @description 改进建议生成器测试,不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 问题列表输入 -> 建议生成 -> 结果验证
 * @rules 验证按类型去重、优先级映射与全局建议的触发条件
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs recommendation_generator.go
 */

package quality

import (
	"testing"

	"dataquality-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRecommendations_DedupByType(t *testing.T) {
	issues := []models.QualityIssue{
		{Type: models.IssueTypeMissingData, Severity: models.SeverityMedium, Table: "users"},
		{Type: models.IssueTypeMissingData, Severity: models.SeverityHigh, Table: "orders"},
	}

	recommendations := GenerateRecommendations(issues, 90)
	assert.Len(t, recommendations, 1)
	assert.Equal(t, models.IssueTypeMissingData, recommendations[0].IssueType)
	// 首条问题决定优先级
	assert.Equal(t, models.PriorityMedium, recommendations[0].Priority)
}

func TestGenerateRecommendations_PriorityFollowsSeverity(t *testing.T) {
	issues := []models.QualityIssue{
		{Type: models.IssueTypeMissingData, Severity: models.SeverityCritical},
		{Type: models.IssueTypeDuplicateRecords, Severity: models.SeverityHigh},
		{Type: models.IssueTypeInvalidFormat, Severity: models.SeverityLow},
		{Type: models.IssueTypeInconsistentValues, Severity: models.SeverityMedium},
	}

	recommendations := GenerateRecommendations(issues, 90)
	assert.Len(t, recommendations, 4)
	assert.Equal(t, models.PriorityUrgent, recommendations[0].Priority)
	assert.Equal(t, models.PriorityHigh, recommendations[1].Priority)
	assert.Equal(t, models.PriorityLow, recommendations[2].Priority)
	assert.Equal(t, models.PriorityMedium, recommendations[3].Priority)
}

func TestGenerateRecommendations_GeneralBelowEighty(t *testing.T) {
	// 总分低于80时追加全局建议
	recommendations := GenerateRecommendations(nil, 79)
	assert.Len(t, recommendations, 1)
	assert.Equal(t, "general", recommendations[0].IssueType)
	assert.Equal(t, models.PriorityHigh, recommendations[0].Priority)

	// 恰好80不触发
	recommendations = GenerateRecommendations(nil, 80)
	assert.Empty(t, recommendations)
}

func TestGenerateRecommendations_LowCompletenessChain(t *testing.T) {
	// 完整性72触发 missing_data high 问题,对应建议为高优先级
	metrics := perfectMetrics()
	metrics.Completeness = 72

	issues := DetectIssues("users", metrics)
	recommendations := GenerateRecommendations(issues, ComposeOverall(metrics))

	require.Len(t, issues, 1)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)

	var found bool
	for _, recommendation := range recommendations {
		if recommendation.IssueType == models.IssueTypeMissingData {
			found = true
			assert.Equal(t, models.PriorityHigh, recommendation.Priority)
		}
	}
	assert.True(t, found)
}

func TestGenerateRecommendations_UnknownIssueTypeSkipped(t *testing.T) {
	issues := []models.QualityIssue{
		{Type: "unknown_issue_type", Severity: models.SeverityHigh},
	}
	recommendations := GenerateRecommendations(issues, 95)
	assert.Empty(t, recommendations)
}
