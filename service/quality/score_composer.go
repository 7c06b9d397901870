/*
 * @module service/quality/score_composer
 * @description 评分合成器,将六维指标合成为总分并划分质量等级
 * @architecture 分层架构 - 纯函数,无状态
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 指标集输入 -> 算术平均 -> 四舍五入 -> 等级划分
 * @rules 总分为六指标无权重算术平均值的四舍五入结果
 * @dependencies math
 * @refs service/quality/metric_calculators.go
 */

package quality

import (
	"math"

	"dataquality-service/service/models"
)

// 质量等级
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
	BandPoor      = "poor"
)

// ComposeOverall 合成总分: round(六指标算术平均值)
func ComposeOverall(metrics models.MetricSet) int {
	sum := metrics.Completeness + metrics.Accuracy + metrics.Consistency +
		metrics.Validity + metrics.Uniqueness + metrics.Timeliness
	return int(math.Round(float64(sum) / 6))
}

// ClassifyBand 按总分划分质量等级
func ClassifyBand(score int) string {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 80:
		return BandGood
	case score >= 70:
		return BandFair
	default:
		return BandPoor
	}
}
