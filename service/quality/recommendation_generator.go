/*
 * @module service/quality/recommendation_generator
 * @description 改进建议生成器,按问题类型映射固定建议模板,并在总分偏低时追加全局建议
 * @architecture 分层架构 - 纯函数,无状态
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 问题列表输入 -> 按类型去重 -> 模板映射 -> 全局建议判定 -> 建议列表输出
 * @rules 每种问题类型最多一条建议,优先级继承问题严重程度;总分低于80时追加一条高优先级全局建议
 * @dependencies 无
 * @refs service/quality/issue_detector.go, service/models/
 */

package quality

import (
	"dataquality-service/service/models"
)

// recommendationTemplate 按问题类型的固定建议模板
type recommendationTemplate struct {
	text   string
	effort string
	impact string
}

var recommendationTemplates = map[string]recommendationTemplate{
	models.IssueTypeMissingData: {
		text:   "检查数据抽取流程,为必填字段补充非空约束,确保所有必要字段都有值",
		effort: "medium",
		impact: "提升完整性指标,减少下游空值处理成本",
	},
	models.IssueTypeDuplicateRecords: {
		text:   "为标识列添加唯一性约束,排查重复数据来源并建立去重流程",
		effort: "medium",
		impact: "提升唯一性指标,避免统计口径失真",
	},
	models.IssueTypeInvalidFormat: {
		text:   "在数据入口增加格式校验规则,对存量非法值进行批量清洗",
		effort: "low",
		impact: "提升有效性指标,降低格式错误传播风险",
	},
	models.IssueTypeInconsistentValues: {
		text:   "统一数据格式与编码标准,对文本字段做规范化清洗",
		effort: "medium",
		impact: "提升一致性指标,统一数据表示方式",
	},
}

// GenerateRecommendations 根据问题列表与总分生成改进建议
// 建议优先级继承对应问题的严重程度,默认 medium
func GenerateRecommendations(issues []models.QualityIssue, overallScore int) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0)
	seen := make(map[string]bool)

	for _, issue := range issues {
		if seen[issue.Type] {
			continue
		}
		template, exists := recommendationTemplates[issue.Type]
		if !exists {
			continue
		}
		seen[issue.Type] = true

		recommendations = append(recommendations, models.Recommendation{
			IssueType: issue.Type,
			Text:      template.text,
			Priority:  priorityForSeverity(issue.Severity),
			Effort:    template.effort,
			Impact:    template.impact,
		})
	}

	if overallScore < 80 {
		recommendations = append(recommendations, models.Recommendation{
			IssueType: "general",
			Text:      "总体质量评分偏低,建议全面检查数据源与处理流程,制定分阶段改进计划",
			Priority:  models.PriorityHigh,
			Effort:    "high",
			Impact:    "系统性提升全库数据质量基线",
		})
	}

	return recommendations
}

// priorityForSeverity 严重程度到建议优先级的映射
func priorityForSeverity(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return models.PriorityUrgent
	case models.SeverityHigh:
		return models.PriorityHigh
	case models.SeverityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
