/*
 * @module service/dispatch/dispatcher
 * @description 异步任务分发器,解析任务信封并调度质量评估引擎执行,通过进度与响应通道回传结果
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/task_dispatch_protocol.md
 * @stateFlow 接收信封 -> 解析任务 -> 进度10% -> 执行 -> 进度100% -> 终态响应 -> 单播+广播
 * @rules 每个任务信封恰好产生一个终态响应;响应必须原样回写 correlation_id;未识别任务返回通用成功确认
 * @dependencies github.com/google/uuid
 * @refs service/quality/, service/event/
 */

package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"dataquality-service/service/catalog"
	"dataquality-service/service/models"
	"dataquality-service/service/monitoring"
	"dataquality-service/service/quality"

	"github.com/google/uuid"
)

// ResponderName 本服务在任务信封中的身份标识
const ResponderName = "quality-engine"

// 发往其他响应方的信封的模拟处理时延
const foreignAckDelay = 200 * time.Millisecond

// EventSink 事件推送接口,由SSE事件服务实现
type EventSink interface {
	SendEventToUser(userName string, event *models.SSEEvent) error
	BroadcastEvent(event *models.SSEEvent) error
}

// Dispatcher 任务分发器
type Dispatcher struct {
	aggregator   *quality.Aggregator
	assessor     *quality.TableAssessor
	store        *quality.AssessmentStore
	events       EventSink
	broadcasters []ResultBroadcaster
}

// PendingTask 进行中的任务句柄
// Response 通道恰好产生一个终态响应信封后关闭,Progress 通道按序产生进度通知
type PendingTask struct {
	Envelope *models.TaskEnvelope
	Response <-chan *models.TaskEnvelope
	Progress <-chan models.TaskProgress
}

// NewDispatcher 创建任务分发器实例
func NewDispatcher(aggregator *quality.Aggregator, assessor *quality.TableAssessor, store *quality.AssessmentStore, events EventSink, broadcasters ...ResultBroadcaster) *Dispatcher {
	return &Dispatcher{
		aggregator:   aggregator,
		assessor:     assessor,
		store:        store,
		events:       events,
		broadcasters: broadcasters,
	}
}

// Dispatch 接收任务信封并异步执行,立即返回任务句柄
// 发往其他响应方的信封不执行本地任务,延迟后返回通用确认
func (d *Dispatcher) Dispatch(ctx context.Context, envelope *models.TaskEnvelope) *PendingTask {
	responseCh := make(chan *models.TaskEnvelope, 1)
	progressCh := make(chan models.TaskProgress, 8)

	pending := &PendingTask{
		Envelope: envelope,
		Response: responseCh,
		Progress: progressCh,
	}

	go d.run(ctx, envelope, responseCh, progressCh)

	return pending
}

// run 执行任务状态机: received -> running -> completed|failed
func (d *Dispatcher) run(ctx context.Context, envelope *models.TaskEnvelope, responseCh chan<- *models.TaskEnvelope, progressCh chan<- models.TaskProgress) {
	defer close(responseCh)
	defer close(progressCh)

	if envelope.To != "" && envelope.To != ResponderName {
		// 发往其他响应方,不在本地执行,模拟处理后返回通用确认
		time.Sleep(foreignAckDelay)
		response := d.buildResponse(envelope, models.JSONB{
			"acknowledged": true,
			"responder":    envelope.To,
		}, nil)
		d.deliver(ctx, envelope, response)
		responseCh <- response
		return
	}

	request := models.ParseTaskRequest(envelope.Payload)
	start := time.Now()

	d.notifyProgress(envelope, progressCh, models.TaskProgress{
		Progress: 10,
		Stage:    fmt.Sprintf("starting %s", request.Task),
	})

	result, err := d.execute(ctx, request)

	stage := fmt.Sprintf("%s completed", request.Task)
	status := "completed"
	if err != nil {
		stage = fmt.Sprintf("%s failed: %v", request.Task, err)
		status = "failed"
	}
	d.notifyProgress(envelope, progressCh, models.TaskProgress{Progress: 100, Stage: stage})

	monitoring.RecordTask(request.Kind.String(), status)
	log.Printf("任务执行完成: 任务=%s, 状态=%s, 耗时=%v", request.Task, status, time.Since(start))

	response := d.buildResponse(envelope, result, err)
	d.deliver(ctx, envelope, response)
	responseCh <- response
}

// execute 按任务种类执行,派生类任务基于全库评估结果裁剪
func (d *Dispatcher) execute(ctx context.Context, request models.TaskRequest) (interface{}, error) {
	switch request.Kind {
	case models.TaskKindAssessAll:
		return d.aggregator.AssessAll(ctx)

	case models.TaskKindAssessTable:
		if request.TableName == "" {
			return nil, fmt.Errorf("缺少 table_name 参数")
		}
		assessmentType := request.AssessmentType
		if assessmentType == "" {
			assessmentType = "manual"
		}
		assessment, err := d.assessor.AssessTable(ctx, request.TableName, assessmentType)
		if err != nil {
			if catalog.IsTableNotFound(err) {
				return nil, fmt.Errorf("表 %s 不存在", request.TableName)
			}
			return nil, err
		}
		return assessment, nil

	case models.TaskKindTrends:
		limit := request.Limit
		if limit <= 0 {
			limit = 20
		}
		return d.store.QualityTrends(ctx, limit)

	case models.TaskKindScorecard:
		catalogAssessment, err := d.aggregator.AssessAll(ctx)
		if err != nil {
			return nil, err
		}
		return buildScorecard(catalogAssessment), nil

	case models.TaskKindReport:
		return d.aggregator.AssessAll(ctx)

	case models.TaskKindRoadmap:
		catalogAssessment, err := d.aggregator.AssessAll(ctx)
		if err != nil {
			return nil, err
		}
		return buildRoadmap(catalogAssessment), nil

	case models.TaskKindIdentifyIssues:
		catalogAssessment, err := d.aggregator.AssessAll(ctx)
		if err != nil {
			return nil, err
		}
		return models.JSONB{
			"total_issues": len(catalogAssessment.Issues),
			"issues":       catalogAssessment.Issues,
		}, nil

	case models.TaskKindRecommend:
		catalogAssessment, err := d.aggregator.AssessAll(ctx)
		if err != nil {
			return nil, err
		}
		return models.JSONB{
			"overall_score":   catalogAssessment.OverallScore,
			"recommendations": catalogAssessment.Recommendations,
		}, nil

	case models.TaskKindValidateIntegrity:
		catalogAssessment, err := d.aggregator.AssessAll(ctx)
		if err != nil {
			return nil, err
		}
		return buildIntegrityReport(catalogAssessment), nil

	default:
		// 未识别任务,返回通用成功确认而非拒绝
		return models.JSONB{
			"acknowledged": true,
			"task":         request.Task,
			"message":      "任务已接收",
		}, nil
	}
}

// buildResponse 构造终态响应信封,原样回写 correlation_id
func (d *Dispatcher) buildResponse(envelope *models.TaskEnvelope, result interface{}, err error) *models.TaskEnvelope {
	payload := models.TaskPayload{
		Task:    envelope.Payload.Task,
		Success: err == nil,
	}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.Result = result
	}

	return &models.TaskEnvelope{
		ID:            uuid.New().String(),
		From:          ResponderName,
		To:            envelope.From,
		Type:          models.EnvelopeTypeResponse,
		Payload:       payload,
		Timestamp:     time.Now(),
		Priority:      envelope.Priority,
		CorrelationID: envelope.CorrelationID,
	}
}

// notifyProgress 推送进度到任务句柄与请求方的SSE连接
func (d *Dispatcher) notifyProgress(envelope *models.TaskEnvelope, progressCh chan<- models.TaskProgress, progress models.TaskProgress) {
	select {
	case progressCh <- progress:
	default:
	}

	if d.events != nil && envelope.From != "" {
		event := &models.SSEEvent{
			EventType: models.SSEEventTypeTaskProgress,
			UserName:  envelope.From,
			Data: models.JSONB{
				"task_id":        envelope.ID,
				"correlation_id": envelope.CorrelationID,
				"task":           envelope.Payload.Task,
				"progress":       progress.Progress,
				"stage":          progress.Stage,
			},
		}
		if err := d.events.SendEventToUser(envelope.From, event); err != nil {
			log.Printf("推送任务进度失败: %v", err)
		}
	}
}

// deliver 终态响应的双路投递: 单播给请求方,同时将归一化结果广播给所有监听方
// 单播与广播相互独立,两路都必须发送
func (d *Dispatcher) deliver(ctx context.Context, envelope *models.TaskEnvelope, response *models.TaskEnvelope) {
	if d.events != nil && envelope.From != "" {
		event := &models.SSEEvent{
			EventType: models.SSEEventTypeTaskResponse,
			UserName:  envelope.From,
			Data: models.JSONB{
				"response_id":    response.ID,
				"correlation_id": response.CorrelationID,
				"task":           response.Payload.Task,
				"success":        response.Payload.Success,
			},
		}
		if err := d.events.SendEventToUser(envelope.From, event); err != nil {
			log.Printf("推送任务响应失败: %v", err)
		}
	}

	if d.events != nil {
		broadcast := &models.SSEEvent{
			EventType: models.SSEEventTypeAssessmentResult,
			UserName:  "system",
			Data: models.JSONB{
				"response_id":    response.ID,
				"correlation_id": response.CorrelationID,
				"task":           response.Payload.Task,
				"success":        response.Payload.Success,
				"result":         response.Payload.Result,
			},
		}
		if err := d.events.BroadcastEvent(broadcast); err != nil {
			log.Printf("广播任务结果失败: %v", err)
		}
	}

	for _, broadcaster := range d.broadcasters {
		if err := broadcaster.Broadcast(ctx, response); err != nil {
			log.Printf("广播任务响应失败: %v", err)
		}
	}
}

// === 派生类任务的结果构造 ===

// buildScorecard 从全库评估裁剪出质量记分卡
func buildScorecard(assessment *models.CatalogAssessment) models.JSONB {
	tableScores := make([]models.JSONB, 0, len(assessment.IndividualAssessments))
	for _, table := range assessment.IndividualAssessments {
		if table.Status != models.AssessmentStatusCompleted {
			continue
		}
		tableScores = append(tableScores, models.JSONB{
			"table_name": table.TableName,
			"score":      table.OverallScore,
			"band":       table.Band,
		})
	}

	return models.JSONB{
		"overall_score": assessment.OverallScore,
		"band":          assessment.Band,
		"metrics":       assessment.Metrics.Values(),
		"total_tables":  assessment.TotalTables,
		"table_scores":  tableScores,
		"generated_at":  assessment.AssessedAt,
	}
}

// buildRoadmap 按问题严重程度分阶段构造改进路线图
func buildRoadmap(assessment *models.CatalogAssessment) models.JSONB {
	var immediate, shortTerm, longTerm []models.Recommendation
	bySeverity := make(map[string]string, len(assessment.Issues))
	for _, issue := range assessment.Issues {
		if current, ok := bySeverity[issue.Type]; !ok || severityRank(issue.Severity) > severityRank(current) {
			bySeverity[issue.Type] = issue.Severity
		}
	}

	for _, recommendation := range assessment.Recommendations {
		switch bySeverity[recommendation.IssueType] {
		case models.SeverityCritical, models.SeverityHigh:
			immediate = append(immediate, recommendation)
		case models.SeverityMedium:
			shortTerm = append(shortTerm, recommendation)
		default:
			longTerm = append(longTerm, recommendation)
		}
	}

	return models.JSONB{
		"overall_score": assessment.OverallScore,
		"phases": []models.JSONB{
			{"phase": "immediate", "horizon": "1-2周", "actions": immediate},
			{"phase": "short_term", "horizon": "1-2月", "actions": shortTerm},
			{"phase": "long_term", "horizon": "3-6月", "actions": longTerm},
		},
		"generated_at": assessment.AssessedAt,
	}
}

// buildIntegrityReport 从全库评估裁剪出完整性校验视图
func buildIntegrityReport(assessment *models.CatalogAssessment) models.JSONB {
	var violations []models.JSONB
	for _, table := range assessment.IndividualAssessments {
		if table.Status != models.AssessmentStatusCompleted {
			continue
		}
		for _, issue := range table.Issues {
			if issue.Type != models.IssueTypeDuplicateRecords && issue.Type != models.IssueTypeInconsistentValues {
				continue
			}
			violations = append(violations, models.JSONB{
				"table_name":        table.TableName,
				"type":              issue.Type,
				"severity":          issue.Severity,
				"affected_estimate": issue.AffectedEstimate,
			})
		}
	}

	return models.JSONB{
		"valid":            len(violations) == 0,
		"tables_checked":   assessment.SuccessfulAssessments,
		"uniqueness_score": assessment.Metrics.Uniqueness,
		"consistency":      assessment.Metrics.Consistency,
		"violations":       violations,
	}
}

// severityRank 严重程度排序权重
func severityRank(severity string) int {
	switch severity {
	case models.SeverityCritical:
		return 4
	case models.SeverityHigh:
		return 3
	case models.SeverityMedium:
		return 2
	case models.SeverityLow:
		return 1
	default:
		return 0
	}
}
