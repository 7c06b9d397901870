/*
 * @module api/controllers/assessment_controller
 * @description 质量评估控制器,提供单表评估、全库评估、历史查询与趋势分析API
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/quality_assessment_req.md
 * @stateFlow HTTP请求 -> 业务逻辑处理 -> 响应返回
 * @rules 遵循RESTful API设计规范,统一错误处理和响应格式
 * @dependencies dataquality-service/service, github.com/go-chi/chi/v5
 * @refs service/quality/, service/catalog/
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dataquality-service/service"
	"dataquality-service/service/catalog"
	"dataquality-service/service/quality"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// AssessmentController 质量评估控制器
type AssessmentController struct {
	catalogService *catalog.Service
	assessor       *quality.TableAssessor
	aggregator     *quality.Aggregator
	store          *quality.AssessmentStore
}

// NewAssessmentController 创建质量评估控制器实例
func NewAssessmentController() *AssessmentController {
	return &AssessmentController{
		catalogService: service.GlobalCatalogService,
		assessor:       service.GlobalTableAssessor,
		aggregator:     service.GlobalAggregator,
		store:          service.GlobalAssessmentStore,
	}
}

// AssessTableRequest 单表评估请求
type AssessTableRequest struct {
	TableName      string `json:"table_name"`
	AssessmentType string `json:"assessment_type"`
}

// AssessTable 评估单表数据质量
// @Summary 评估单表数据质量
// @Description 对指定表执行六维质量评估,返回指标、问题与改进建议
// @Tags 质量评估
// @Accept json
// @Produce json
// @Param request body AssessTableRequest true "评估请求"
// @Success 200 {object} APIResponse{data=models.TableAssessment}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /quality/assess [post]
func (c *AssessmentController) AssessTable(w http.ResponseWriter, r *http.Request) {
	var req AssessTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求格式错误: "+err.Error())
		return
	}
	if req.TableName == "" {
		writeError(w, http.StatusBadRequest, "table_name 不能为空")
		return
	}
	if req.AssessmentType == "" {
		req.AssessmentType = "manual"
	}

	assessment, err := c.assessor.AssessTable(r.Context(), req.TableName, req.AssessmentType)
	if err != nil {
		if catalog.IsTableNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, catalog.ErrStorageUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, assessment)
}

// AssessAll 评估全库数据质量
// @Summary 评估全部用户表的数据质量
// @Description 并发评估目录中的所有用户表并聚合为全库质量报告
// @Tags 质量评估
// @Produce json
// @Success 200 {object} APIResponse{data=models.CatalogAssessment}
// @Failure 500 {object} APIResponse
// @Router /quality/assess-all [post]
func (c *AssessmentController) AssessAll(w http.ResponseWriter, r *http.Request) {
	assessment, err := c.aggregator.AssessAll(r.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrStorageUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, assessment)
}

// ListTables 列出可评估的用户表
// @Summary 列出可评估的用户表
// @Description 返回目录中排除内部元数据表后的全部用户表名
// @Tags 质量评估
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Failure 500 {object} APIResponse
// @Router /quality/tables [get]
func (c *AssessmentController) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := c.catalogService.ListTables(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, tables)
}

// ListAssessments 查询历史评估记录
// @Summary 查询历史评估记录
// @Description 按评估时间倒序返回最近的评估记录
// @Tags 质量评估
// @Produce json
// @Param limit query int false "返回条数" default(20)
// @Success 200 {object} APIResponse{data=[]models.QualityAssessmentRecord}
// @Failure 500 {object} APIResponse
// @Router /quality/assessments [get]
func (c *AssessmentController) ListAssessments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	records, err := c.store.RecentAssessments(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, records)
}

// GetAssessment 查询评估记录详情
// @Summary 查询评估记录详情
// @Description 根据记录ID查询单条评估记录
// @Tags 质量评估
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} APIResponse{data=models.QualityAssessmentRecord}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /quality/assessments/{id} [get]
func (c *AssessmentController) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := c.store.GetAssessment(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "评估记录不存在")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, record)
}

// GetTrends 查询质量趋势
// @Summary 查询质量趋势
// @Description 基于最近的评估记录分析质量分数的变化趋势
// @Tags 质量评估
// @Produce json
// @Param limit query int false "参与分析的记录条数" default(20)
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /quality/trends [get]
func (c *AssessmentController) GetTrends(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	trends, err := c.store.QualityTrends(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, trends)
}
