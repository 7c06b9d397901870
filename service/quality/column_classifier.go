/*
 * @module service/quality/column_classifier
 * @description 列语义分类器,基于列名与数据类型启发式判定列的语义角色,供指标计算器选择探针
 * @architecture 策略模式 - 可插拔的分类能力
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 列元数据输入 -> 启发式匹配 -> 语义角色输出
 * @rules 分类器可替换为基于模式注解的实现,指标计算器不感知具体启发式规则
 * @dependencies strings
 * @refs service/quality/metric_calculators.go, service/catalog/
 */

package quality

import (
	"strings"

	"dataquality-service/service/catalog"
)

// ColumnClassifier 列语义分类能力,指标计算器据此选择参与探测的列
type ColumnClassifier interface {
	// IsIdentifier 是否为标识列,参与唯一性探测
	IsIdentifier(col catalog.ColumnMetadata) bool
	// IsEmail 是否为邮箱列,参与有效性探测
	IsEmail(col catalog.ColumnMetadata) bool
	// IsPhone 是否为电话列,参与准确性探测
	IsPhone(col catalog.ColumnMetadata) bool
	// IsText 是否为文本列,参与一致性探测
	IsText(col catalog.ColumnMetadata) bool
	// IsTimestamp 是否为时间列,参与时效性探测
	IsTimestamp(col catalog.ColumnMetadata) bool
}

// NameHeuristicClassifier 基于列名与类型的启发式分类器
type NameHeuristicClassifier struct{}

// NewNameHeuristicClassifier 创建启发式分类器实例
func NewNameHeuristicClassifier() *NameHeuristicClassifier {
	return &NameHeuristicClassifier{}
}

func (c *NameHeuristicClassifier) IsIdentifier(col catalog.ColumnMetadata) bool {
	name := strings.ToLower(col.Name)
	return strings.Contains(name, "id") || strings.Contains(name, "email")
}

func (c *NameHeuristicClassifier) IsEmail(col catalog.ColumnMetadata) bool {
	return strings.Contains(strings.ToLower(col.Name), "email")
}

func (c *NameHeuristicClassifier) IsPhone(col catalog.ColumnMetadata) bool {
	name := strings.ToLower(col.Name)
	return strings.Contains(name, "phone") || strings.Contains(name, "mobile") || strings.Contains(name, "tel")
}

func (c *NameHeuristicClassifier) IsText(col catalog.ColumnMetadata) bool {
	dataType := strings.ToLower(col.DataType)
	for _, keyword := range []string{"char", "text", "string", "clob"} {
		if strings.Contains(dataType, keyword) {
			return true
		}
	}
	return false
}

func (c *NameHeuristicClassifier) IsTimestamp(col catalog.ColumnMetadata) bool {
	dataType := strings.ToLower(col.DataType)
	for _, keyword := range []string{"timestamp", "datetime", "date"} {
		if strings.Contains(dataType, keyword) {
			return true
		}
	}

	name := strings.ToLower(col.Name)
	return strings.HasSuffix(name, "_at") || strings.HasSuffix(name, "_time")
}
