/*
 * @module api/controllers/scoring_controller
 * @description 即时评分控制器，支持按临时规则或已存储规则集评分，不持久化结果
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow 请求解析 -> 评分引擎 -> 评分结果
 * @rules 临时规则的权重接受任意存储形式，评分前归一化
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/scoring/engine.go, service/record_scoring/scoring_service.go
 */

package controllers

import (
	"net/http"
	"recordquality-service/service/record_scoring"
	"recordquality-service/service/scoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ScoringController 评分控制器
type ScoringController struct {
	engine *scoring.Engine
	scorer *record_scoring.ScoringService
}

// NewScoringController 创建评分控制器
func NewScoringController(engine *scoring.Engine, scorer *record_scoring.ScoringService) *ScoringController {
	return &ScoringController{engine: engine, scorer: scorer}
}

// EvaluateRequest 临时规则评分请求
type EvaluateRequest struct {
	Rules  []scoring.Rule         `json:"rules"`
	Values map[string]interface{} `json:"values"`
}

// EvaluateRecordTypeRequest 按记录类型评分请求
type EvaluateRecordTypeRequest struct {
	Values map[string]interface{} `json:"values"`
}

// Evaluate 按临时规则评分
// @Summary 按临时规则评分
// @Description 对给定字段值按请求中的规则计算完整度，权重可为数字或 "3 – Medium" 形式的字符串
// @Tags 评分
// @Accept json
// @Produce json
// @Param request body EvaluateRequest true "规则与字段值"
// @Success 200 {object} APIResponse{data=scoring.ScoreResult} "评分成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /scoring/evaluate [post]
func (c *ScoringController) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("请求参数解析失败", err))
		return
	}

	result := c.engine.Score(req.Rules, req.Values)
	render.JSON(w, r, SuccessResponse("评分成功", result))
}

// EvaluateRecordType 按已存储规则集评分
// @Summary 按记录类型评分
// @Description 使用记录类型当前规则集对字段值评分，未配置规则集时得分为100
// @Tags 评分
// @Accept json
// @Produce json
// @Param record_type path string true "记录类型"
// @Param request body EvaluateRecordTypeRequest true "字段值"
// @Success 200 {object} APIResponse{data=scoring.ScoreResult} "评分成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /scoring/{record_type}/evaluate [post]
func (c *ScoringController) EvaluateRecordType(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRecordTypeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("请求参数解析失败", err))
		return
	}

	result, err := c.scorer.Evaluate(r.Context(), chi.URLParam(r, "record_type"), req.Values)
	if err != nil {
		writeError(w, r, "评分失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("评分成功", result))
}
