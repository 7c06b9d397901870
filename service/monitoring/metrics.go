/*
 * @module service/monitoring/metrics
 * @description 运行指标采集,暴露评估与任务分发的Prometheus计数器与耗时直方图
 * @architecture 监控层 - 进程内指标注册
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 业务操作完成 -> 指标记录 -> /metrics 端点暴露
 * @rules 指标仅在进程内累积,不落库
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/quality/, service/dispatch/
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	assessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_assessments_total",
			Help: "表级质量评估总数,按状态分类",
		},
		[]string{"status"},
	)

	assessmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quality_assessment_duration_seconds",
			Help:    "表级质量评估耗时分布",
			Buckets: prometheus.DefBuckets,
		},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_tasks_dispatched_total",
			Help: "分发的异步任务总数,按任务种类与状态分类",
		},
		[]string{"task", "status"},
	)
)

func init() {
	prometheus.MustRegister(assessmentsTotal, assessmentDuration, tasksTotal)
}

// RecordAssessment 记录一次表级评估
func RecordAssessment(status string, seconds float64) {
	assessmentsTotal.WithLabelValues(status).Inc()
	assessmentDuration.Observe(seconds)
}

// RecordTask 记录一次任务分发结局
func RecordTask(task, status string) {
	tasksTotal.WithLabelValues(task, status).Inc()
}
