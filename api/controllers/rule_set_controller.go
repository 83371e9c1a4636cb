/*
 * @module api/controllers/rule_set_controller
 * @description 规则集管理控制器，提供规则集的查询、创建、整体替换与删除
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow 请求解析 -> 规则存储 -> 响应映射
 * @rules 校验失败返回400并附逐条问题；重复创建返回409；替换不存在的规则集返回404
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/rulestore/store.go
 */

package controllers

import (
	"net/http"
	"recordquality-service/service/rulestore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// RuleSetController 规则集控制器
type RuleSetController struct {
	store *rulestore.RuleStore
}

// NewRuleSetController 创建规则集控制器
func NewRuleSetController(store *rulestore.RuleStore) *RuleSetController {
	return &RuleSetController{store: store}
}

// CreateRuleSetRequest 创建规则集请求
type CreateRuleSetRequest struct {
	RecordType string                     `json:"record_type" example:"Account"`
	Rules      []rulestore.FieldRuleInput `json:"rules"`
}

// ReplaceRulesRequest 整体替换规则请求
type ReplaceRulesRequest struct {
	Rules []rulestore.FieldRuleInput `json:"rules"`
}

// ListRuleSets 获取规则集列表
// @Summary 获取规则集列表
// @Description 返回所有已配置的规则集及其字段规则
// @Tags 规则集管理
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.RuleSet} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /rule-sets [get]
func (c *RuleSetController) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	sets, err := c.store.ListRuleSets(r.Context())
	if err != nil {
		writeError(w, r, "获取规则集列表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取规则集列表成功", sets))
}

// CreateRuleSet 创建规则集
// @Summary 创建规则集
// @Description 为记录类型创建规则集，每个记录类型只能有一个规则集
// @Description
// @Description **校验规则:**
// @Description - 字段名不能为空，同一批次不可重复
// @Description - 权重范围 1-5
// @Tags 规则集管理
// @Accept json
// @Produce json
// @Param request body CreateRuleSetRequest true "规则集"
// @Success 201 {object} APIResponse{data=models.RuleSet} "创建成功"
// @Failure 400 {object} APIResponse{data=rulestore.ValidationError} "校验失败"
// @Failure 409 {object} APIResponse "规则集已存在"
// @Router /rule-sets [post]
func (c *RuleSetController) CreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleSetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("请求参数解析失败", err))
		return
	}

	set, err := c.store.CreateRuleSet(r.Context(), req.RecordType, req.Rules)
	if err != nil {
		writeError(w, r, "创建规则集失败", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, SuccessResponse("创建规则集成功", set))
}

// GetRuleSet 获取规则集
// @Summary 获取规则集
// @Description 按记录类型获取规则集，未配置时返回空规则集
// @Tags 规则集管理
// @Produce json
// @Param record_type path string true "记录类型"
// @Success 200 {object} APIResponse{data=models.RuleSet} "获取成功"
// @Router /rule-sets/{record_type} [get]
func (c *RuleSetController) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "record_type")

	set, err := c.store.GetRuleSet(r.Context(), recordType)
	if err != nil {
		writeError(w, r, "获取规则集失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取规则集成功", set))
}

// ReplaceRules 整体替换规则
// @Summary 整体替换规则
// @Description 以新的规则列表整体替换规则集中的全部字段规则，任一规则不合法时不做任何修改
// @Tags 规则集管理
// @Accept json
// @Produce json
// @Param record_type path string true "记录类型"
// @Param request body ReplaceRulesRequest true "新的规则列表"
// @Success 200 {object} APIResponse{data=models.RuleSet} "替换成功"
// @Failure 400 {object} APIResponse{data=rulestore.ValidationError} "校验失败"
// @Failure 404 {object} APIResponse "规则集不存在"
// @Router /rule-sets/{record_type}/rules [put]
func (c *RuleSetController) ReplaceRules(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "record_type")

	var req ReplaceRulesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse("请求参数解析失败", err))
		return
	}

	set, err := c.store.ReplaceRules(r.Context(), recordType, req.Rules)
	if err != nil {
		writeError(w, r, "替换规则失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("替换规则成功", set))
}

// DeleteRuleSet 删除规则集
// @Summary 删除规则集
// @Tags 规则集管理
// @Produce json
// @Param record_type path string true "记录类型"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "规则集不存在"
// @Router /rule-sets/{record_type} [delete]
func (c *RuleSetController) DeleteRuleSet(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "record_type")

	if err := c.store.DeleteRuleSet(r.Context(), recordType); err != nil {
		writeError(w, r, "删除规则集失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除规则集成功", nil))
}
