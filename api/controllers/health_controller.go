/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器,提供存活与就绪探针
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow HTTP请求 -> 状态检查 -> 响应返回
 * @rules 就绪检查包含数据库连通性
 * @dependencies dataquality-service/service
 * @refs service/init.go
 */

package controllers

import (
	"net/http"
	"time"

	"dataquality-service/service"
)

// HealthController 健康检查控制器
type HealthController struct{}

// NewHealthController 创建健康检查控制器实例
func NewHealthController() *HealthController {
	return &HealthController{}
}

// Health 存活探针
// @Summary 存活检查
// @Tags 健康检查
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready 就绪探针,检查数据库连通性
// @Summary 就绪检查
// @Tags 健康检查
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := service.DB.DB()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "数据库不可用: "+err.Error())
		return
	}
	if err := sqlDB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "数据库不可用: "+err.Error())
		return
	}

	writeSuccess(w, map[string]interface{}{"status": "ready"})
}
