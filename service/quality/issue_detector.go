/*
 * @module service/quality/issue_detector
 * @description 质量问题检测器,对指标集应用确定性阈值规则,输出带严重程度的类型化问题
 * @architecture 规则引擎 - 固定阈值表逐条独立评估
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 指标集输入 -> 阈值规则匹配 -> 严重程度判定 -> 受影响记录估算 -> 问题列表输出
 * @rules 问题仅在指标严格低于阈值时产生;严重程度由低于阈值的幅度决定;
 *        受影响记录数为 (100−指标)×类型系数 的确定性估算,非精确计数
 * @dependencies fmt
 * @refs service/quality/metric_calculators.go, service/models/
 */

package quality

import (
	"fmt"

	"dataquality-service/service/models"
)

// thresholdRule 阈值规则,按固定顺序评估
type thresholdRule struct {
	metric     string
	threshold  int
	highBelow  int // 低于该值时严重程度升为 high
	issueType  string
	multiplier int64
	label      string
}

// 规则表顺序即输出问题的顺序
var thresholdRules = []thresholdRule{
	{models.MetricCompleteness, 90, 80, models.IssueTypeMissingData, 10, "完整性"},
	{models.MetricUniqueness, 95, 85, models.IssueTypeDuplicateRecords, 5, "唯一性"},
	{models.MetricValidity, 90, 80, models.IssueTypeInvalidFormat, 8, "有效性"},
	{models.MetricConsistency, 85, 70, models.IssueTypeInconsistentValues, 6, "一致性"},
}

// DetectIssues 按阈值表检测质量问题,每个指标独立评估,可同时触发多条
func DetectIssues(tableName string, metrics models.MetricSet) []models.QualityIssue {
	values := metrics.Values()
	issues := make([]models.QualityIssue, 0)

	for _, rule := range thresholdRules {
		value := values[rule.metric]
		if value >= rule.threshold {
			continue
		}

		severity := models.SeverityMedium
		if value < rule.highBelow {
			severity = models.SeverityHigh
		}

		issues = append(issues, models.QualityIssue{
			Type:             rule.issueType,
			Severity:         severity,
			AffectedEstimate: int64(100-value) * rule.multiplier,
			Table:            tableName,
			Description: fmt.Sprintf("表 %s %s评分 %d 低于阈值 %d,估算受影响记录约 %d 条",
				tableName, rule.label, value, rule.threshold, int64(100-value)*rule.multiplier),
		})
	}

	return issues
}
