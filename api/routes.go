/*
 * @module api/routes
 * @description API路由配置模块,负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范,统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/
 */

package api

import (
	"dataquality-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// SSE事件订阅
	taskController := controllers.NewTaskController()
	r.Get("/sse/{user_name}", taskController.HandleSSE)

	// 任务分发
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/dispatch", taskController.DispatchTask)
	})

	// 质量评估
	r.Route("/quality", func(r chi.Router) {
		assessmentController := controllers.NewAssessmentController()

		// 单表评估
		r.Post("/assess", assessmentController.AssessTable)

		// 全库评估
		r.Post("/assess-all", assessmentController.AssessAll)

		// 可评估表清单
		r.Get("/tables", assessmentController.ListTables)

		// 历史评估记录
		r.Get("/assessments", assessmentController.ListAssessments)
		r.Get("/assessments/{id}", assessmentController.GetAssessment)

		// 质量趋势
		r.Get("/trends", assessmentController.GetTrends)
	})
}
