/*
 * @module service/scheduler/assessment_scheduler
 * @description 定时评估调度器,按Cron表达式周期性执行全库质量评估
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 调度器启动 -> 定时触发 -> 全库评估 -> 记录摘要
 * @rules 同一时刻最多运行一次定时评估,上一轮未完成时跳过本轮
 * @dependencies github.com/robfig/cron/v3
 * @refs service/quality/aggregator.go
 */

package scheduler

import (
	"context"
	"log"
	"os"
	"sync/atomic"
	"time"

	"dataquality-service/service/quality"

	"github.com/robfig/cron/v3"
)

// AssessmentScheduler 定时评估调度器
type AssessmentScheduler struct {
	cron       *cron.Cron
	aggregator *quality.Aggregator
	spec       string
	running    atomic.Bool
}

// NewAssessmentScheduler 创建定时评估调度器
// Cron表达式从 QUALITY_ASSESS_CRON 环境变量读取,默认每天凌晨2点
func NewAssessmentScheduler(aggregator *quality.Aggregator) *AssessmentScheduler {
	spec := os.Getenv("QUALITY_ASSESS_CRON")
	if spec == "" {
		spec = "0 2 * * *"
	}

	return &AssessmentScheduler{
		cron:       cron.New(),
		aggregator: aggregator,
		spec:       spec,
	}
}

// Start 启动调度器
func (s *AssessmentScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScheduledAssessment); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("定时评估调度器已启动: cron=%s", s.spec)
	return nil
}

// Stop 停止调度器,等待进行中的任务结束
func (s *AssessmentScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("定时评估调度器已停止")
}

// runScheduledAssessment 执行一轮定时全库评估
func (s *AssessmentScheduler) runScheduledAssessment() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("上一轮定时评估尚未完成,跳过本轮")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	start := time.Now()
	assessment, err := s.aggregator.AssessAll(ctx)
	if err != nil {
		log.Printf("定时评估失败: %v", err)
		return
	}

	log.Printf("定时评估完成: 总表数=%d, 成功=%d, 失败=%d, 总分=%d(%s), 耗时=%v",
		assessment.TotalTables, assessment.SuccessfulAssessments, assessment.FailedAssessments,
		assessment.OverallScore, assessment.Band, time.Since(start))
}
