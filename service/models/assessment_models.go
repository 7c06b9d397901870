/*
 * @module service/models/assessment_models
 * @description 数据质量评估核心模型,包含指标集、质量问题、改进建议、表级评估与全库评估
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 表元数据采集 -> 指标计算 -> 评分合成 -> 问题检测 -> 建议生成 -> 结果持久化
 * @rules 六个指标均为 [0,100] 整数,总分为六指标算术平均值四舍五入;TableAssessment 一旦返回即不可变
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/quality/, service/catalog/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 指标名称常量
const (
	MetricCompleteness = "completeness"
	MetricAccuracy     = "accuracy"
	MetricConsistency  = "consistency"
	MetricValidity     = "validity"
	MetricUniqueness   = "uniqueness"
	MetricTimeliness   = "timeliness"
)

// 指标来源,区分真实测量值与占位值
const (
	MetricSourceMeasured    = "measured"    // 通过探针真实测得
	MetricSourceUnavailable = "unavailable" // 表中缺少可测信号,未测量
)

// 评估状态
const (
	AssessmentStatusCompleted = "completed"
	AssessmentStatusFailed    = "failed"
)

// 问题严重程度
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// 建议优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// 质量问题类型
const (
	IssueTypeMissingData        = "missing_data"
	IssueTypeDuplicateRecords   = "duplicate_records"
	IssueTypeInvalidFormat      = "invalid_format"
	IssueTypeInconsistentValues = "inconsistent_values"
)

// MetricSet 六维质量指标集,所有分值为 [0,100] 整数
// Sources 标记每个指标是真实测量还是因缺少信号而未测量
type MetricSet struct {
	Completeness int               `json:"completeness"`
	Accuracy     int               `json:"accuracy"`
	Consistency  int               `json:"consistency"`
	Validity     int               `json:"validity"`
	Uniqueness   int               `json:"uniqueness"`
	Timeliness   int               `json:"timeliness"`
	Sources      map[string]string `json:"sources,omitempty"`
}

// Values 以指标名为键返回六个分值
func (m MetricSet) Values() map[string]int {
	return map[string]int{
		MetricCompleteness: m.Completeness,
		MetricAccuracy:     m.Accuracy,
		MetricConsistency:  m.Consistency,
		MetricValidity:     m.Validity,
		MetricUniqueness:   m.Uniqueness,
		MetricTimeliness:   m.Timeliness,
	}
}

// ToJSONB 转换为 JSONB 便于持久化
func (m MetricSet) ToJSONB() JSONB {
	result := JSONB{
		MetricCompleteness: m.Completeness,
		MetricAccuracy:     m.Accuracy,
		MetricConsistency:  m.Consistency,
		MetricValidity:     m.Validity,
		MetricUniqueness:   m.Uniqueness,
		MetricTimeliness:   m.Timeliness,
	}
	if len(m.Sources) > 0 {
		sources := JSONB{}
		for name, source := range m.Sources {
			sources[name] = source
		}
		result["sources"] = sources
	}
	return result
}

// QualityIssue 数据质量问题
// 仅当触发指标低于配置阈值时存在,严重程度由低于阈值的幅度决定
type QualityIssue struct {
	Type             string   `json:"type"`
	Description      string   `json:"description"`
	Severity         string   `json:"severity"` // low, medium, high, critical
	AffectedEstimate int64    `json:"affected_estimate"`
	Table            string   `json:"table"`
	Field            string   `json:"field,omitempty"`
	Examples         []string `json:"examples,omitempty"`
}

// Recommendation 改进建议,按问题类型派生,每种类型最多一条
type Recommendation struct {
	IssueType string `json:"issue_type"`
	Text      string `json:"text"`
	Priority  string `json:"priority"` // low, medium, high, urgent
	Effort    string `json:"effort"`
	Impact    string `json:"impact"`
}

// TableAssessment 单表质量评估结果,返回后不可变
type TableAssessment struct {
	ID              string           `json:"id"`
	TableName       string           `json:"table_name"`
	AssessmentType  string           `json:"assessment_type"`
	Metrics         MetricSet        `json:"metrics"`
	OverallScore    int              `json:"overall_score"`
	Band            string           `json:"band"` // excellent, good, fair, poor
	Issues          []QualityIssue   `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`
	Status          string           `json:"status"` // completed, failed
	ErrorMessage    string           `json:"error_message,omitempty"`
	RowCount        int64            `json:"row_count"`
	ColumnCount     int              `json:"column_count"`
	AssessedAt      time.Time        `json:"assessed_at"`
}

// CatalogAssessment 全库评估结果,由逐表评估聚合而来,仅作为瞬态视图不整体持久化
type CatalogAssessment struct {
	TotalTables           int               `json:"total_tables"`
	SuccessfulAssessments int               `json:"successful_assessments"`
	FailedAssessments     int               `json:"failed_assessments"`
	TotalRows             int64             `json:"total_rows"`
	TotalColumns          int               `json:"total_columns"`
	Metrics               MetricSet         `json:"metrics"`
	OverallScore          int               `json:"overall_score"`
	Band                  string            `json:"band"`
	Issues                []QualityIssue    `json:"issues"`
	Recommendations       []Recommendation  `json:"recommendations"`
	IndividualAssessments []TableAssessment `json:"individual_assessments"`
	AssessedAt            time.Time         `json:"assessed_at"`
}

// QualityAssessmentRecord 表级评估持久化记录模型
// 服务端生成的 ID 与内存中评估的 ID 相互独立
type QualityAssessmentRecord struct {
	ID              string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	TableName       string     `gorm:"type:varchar(100);not null;index" json:"table_name"`
	AssessmentType  string     `gorm:"type:varchar(30);not null" json:"assessment_type"` // full, scheduled, manual
	Metrics         JSONB      `gorm:"type:jsonb" json:"metrics"`
	Score           int        `json:"score"`
	Issues          JSONBArray `gorm:"type:jsonb" json:"issues"`
	Recommendations JSONBArray `gorm:"type:jsonb" json:"recommendations"`
	Status          string     `gorm:"type:varchar(20);not null" json:"status"` // completed, failed
	RowCount        int64      `json:"row_count"`
	ColumnCount     int        `json:"column_count"`
	AssessedAt      time.Time  `gorm:"index" json:"assessed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate 创建前钩子
func (q *QualityAssessmentRecord) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
