/*
 * @module api/controllers/record_controller
 * @description 被监控记录控制器：批量保存并评分、查询记录、手动触发重评分
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow 请求解析 -> 评分 -> 持久化 -> 响应
 * @rules 评分失败的记录仍然保存，分数保持原值；单批最多 maxBatchRecords 条
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/record_scoring/record_service.go, service/record_scoring/rescore_scheduler.go
 */

package controllers

import (
	"fmt"
	"net/http"
	"recordquality-service/service/models"
	"recordquality-service/service/record_scoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const maxBatchRecords = 1000

// RecordController 记录控制器
type RecordController struct {
	records   *record_scoring.RecordService
	scheduler *record_scoring.RescoreScheduler
}

// NewRecordController 创建记录控制器
func NewRecordController(records *record_scoring.RecordService, scheduler *record_scoring.RescoreScheduler) *RecordController {
	return &RecordController{records: records, scheduler: scheduler}
}

// SaveRecordsRequest 批量保存请求
type SaveRecordsRequest struct {
	Records []record_scoring.RecordInput `json:"records"`
}

// SaveRecordsResponse 批量保存结果
type SaveRecordsResponse struct {
	Records []models.MonitoredRecord      `json:"records"`
	Summary record_scoring.ScoringSummary `json:"summary"`
}

// SaveRecords 批量保存并评分
// @Summary 批量保存记录
// @Description 在保存前按记录类型的当前规则集计算分数；规则集读取失败的记录照常保存，分数保持原值
// @Tags 记录管理
// @Accept json
// @Produce json
// @Param request body SaveRecordsRequest true "记录列表"
// @Success 200 {object} APIResponse{data=SaveRecordsResponse} "保存成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /records/batch [post]
func (c *RecordController) SaveRecords(w http.ResponseWriter, r *http.Request) {
	var req SaveRecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("请求参数解析失败", err))
		return
	}
	if len(req.Records) == 0 {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("记录列表不能为空", nil))
		return
	}
	if len(req.Records) > maxBatchRecords {
		writeJSON(w, r, http.StatusBadRequest,
			BadRequestResponse(fmt.Sprintf("单批记录数不能超过%d", maxBatchRecords), nil))
		return
	}

	saved, summary, err := c.records.SaveRecords(r.Context(), req.Records)
	if err != nil {
		writeError(w, r, "保存记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("保存记录成功", SaveRecordsResponse{Records: saved, Summary: summary}))
}

// ListRecords 分页查询记录
// @Summary 查询记录列表
// @Tags 记录管理
// @Produce json
// @Param record_type query string false "记录类型"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} PaginatedResponse{data=[]models.MonitoredRecord} "获取成功"
// @Router /records [get]
func (c *RecordController) ListRecords(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	records, total, err := c.records.ListRecords(r.Context(), r.URL.Query().Get("record_type"), page, size)
	if err != nil {
		writeError(w, r, "获取记录列表失败", err)
		return
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 20
	}
	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "获取记录列表成功",
		Data:   records,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRecord 获取记录详情
// @Summary 获取记录
// @Tags 记录管理
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} APIResponse{data=models.MonitoredRecord} "获取成功"
// @Failure 404 {object} APIResponse "记录不存在"
// @Router /records/{id} [get]
func (c *RecordController) GetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := c.records.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "获取记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取记录成功", record))
}

// Rescore 手动触发全量重评分
// @Summary 触发重评分
// @Description 按各记录类型当前规则集重新计算全部记录的分数；其他实例正在执行时返回 executed=false
// @Tags 记录管理
// @Produce json
// @Success 200 {object} APIResponse{data=record_scoring.RescoreReport} "执行完成"
// @Failure 500 {object} APIResponse "执行失败"
// @Router /records/rescore [post]
func (c *RecordController) Rescore(w http.ResponseWriter, r *http.Request) {
	report, err := c.scheduler.RescoreAll(r.Context())
	if err != nil {
		writeError(w, r, "重评分失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("重评分完成", report))
}
