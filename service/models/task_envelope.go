/*
 * @module service/models/task_envelope
 * @description 异步任务分发协议模型,包含任务信封、任务类型联合体与进度事件
 * @architecture 事件驱动架构 - 数据模型层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 任务信封接收 -> 任务类型解析 -> 执行 -> 进度通知 -> 终态响应
 * @rules 响应信封必须原样回写请求的 correlation_id;每个任务恰好产生一个终态响应
 * @dependencies github.com/spf13/cast
 * @refs service/dispatch/
 */

package models

import (
	"time"

	"github.com/spf13/cast"
)

// 信封类型
const (
	EnvelopeTypeTask     = "task"
	EnvelopeTypeResponse = "response"
)

// TaskEnvelope 任务信封,请求与响应共用同一结构
// CorrelationID 由调用方提供,响应时原样回写,用于多路并发请求的解复用
type TaskEnvelope struct {
	ID            string      `json:"id"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Type          string      `json:"type"` // task, response
	Payload       TaskPayload `json:"payload"`
	Timestamp     time.Time   `json:"timestamp"`
	Priority      int         `json:"priority"`
	CorrelationID string      `json:"correlationId"`
}

// TaskPayload 任务载荷,请求携带 task/parameters,响应携带 task/result/success
type TaskPayload struct {
	Task       string      `json:"task"`
	Parameters JSONB       `json:"parameters,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
}

// TaskProgress 任务进度通知,仅发送给请求方
type TaskProgress struct {
	Progress int    `json:"progress"` // 0-100
	Stage    string `json:"stage"`
}

// TaskKind 任务种类,封闭的任务类型联合体
// 未识别的任务名归入 TaskKindUnknown,作为显式变体而非隐式默认分支
type TaskKind int

const (
	TaskKindUnknown TaskKind = iota
	TaskKindAssessAll
	TaskKindAssessTable
	TaskKindScorecard
	TaskKindTrends
	TaskKindRoadmap
	TaskKindIdentifyIssues
	TaskKindRecommend
	TaskKindReport
	TaskKindValidateIntegrity
)

// String 返回任务种类名称
func (k TaskKind) String() string {
	switch k {
	case TaskKindAssessAll:
		return "assess_all"
	case TaskKindAssessTable:
		return "assess_table"
	case TaskKindScorecard:
		return "scorecard"
	case TaskKindTrends:
		return "trends"
	case TaskKindRoadmap:
		return "roadmap"
	case TaskKindIdentifyIssues:
		return "identify_issues"
	case TaskKindRecommend:
		return "recommend"
	case TaskKindReport:
		return "report"
	case TaskKindValidateIntegrity:
		return "validate_integrity"
	default:
		return "unknown"
	}
}

// TaskRequest 解析后的强类型任务请求
type TaskRequest struct {
	Kind           TaskKind
	Task           string // 原始任务名
	TableName      string
	AssessmentType string
	Limit          int
}

// ParseTaskRequest 将任务载荷解析为强类型任务请求
// assess-data-quality 携带 table_name 参数时按单表评估处理
func ParseTaskRequest(payload TaskPayload) TaskRequest {
	req := TaskRequest{
		Task:           payload.Task,
		TableName:      cast.ToString(payload.Parameters["table_name"]),
		AssessmentType: cast.ToString(payload.Parameters["assessment_type"]),
		Limit:          cast.ToInt(payload.Parameters["limit"]),
	}

	switch payload.Task {
	case "assess-data-quality":
		if req.TableName != "" {
			req.Kind = TaskKindAssessTable
		} else {
			req.Kind = TaskKindAssessAll
		}
	case "assess-specific-source":
		req.Kind = TaskKindAssessTable
	case "quality-scorecard", "generate-quality-scorecard":
		req.Kind = TaskKindScorecard
	case "quality-trends", "monitor-quality-trends":
		req.Kind = TaskKindTrends
	case "improvement-roadmap":
		req.Kind = TaskKindRoadmap
	case "identify-data-issues":
		req.Kind = TaskKindIdentifyIssues
	case "recommend-improvements":
		req.Kind = TaskKindRecommend
	case "generate-quality-report":
		req.Kind = TaskKindReport
	case "validate-data-integrity":
		req.Kind = TaskKindValidateIntegrity
	default:
		req.Kind = TaskKindUnknown
	}

	return req
}
