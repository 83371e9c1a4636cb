/*
 * @module api/controllers/response
 * @description 统一响应结构与错误到HTTP状态码的映射
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow 业务结果/错误 -> 响应结构 -> JSON输出
 * @rules 成功时 status 为0；失败时 status 为HTTP状态码，校验错误附带逐条问题
 * @dependencies github.com/go-chi/render
 * @refs api/controllers/rule_set_controller.go, api/controllers/record_controller.go
 */

package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"recordquality-service/service/record_scoring"
	"recordquality-service/service/rulestore"

	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// BadRequestResponse 参数错误响应
func BadRequestResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusBadRequest, msg, err)
}

// NotFoundResponse 资源不存在响应
func NotFoundResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusNotFound, msg, err)
}

// InternalErrorResponse 内部错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusInternalServerError, msg, err)
}

func errorResponse(status int, msg string, err error) APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return APIResponse{Status: status, Msg: msg}
}

// writeJSON 写出带状态码的响应
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// writeError 按错误类型映射状态码
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var validationErr *rulestore.ValidationError
	var duplicateErr *rulestore.DuplicateError

	switch {
	case errors.As(err, &validationErr):
		resp := errorResponse(http.StatusBadRequest, msg, err)
		resp.Data = validationErr
		writeJSON(w, r, http.StatusBadRequest, resp)
	case errors.As(err, &duplicateErr):
		writeJSON(w, r, http.StatusConflict, errorResponse(http.StatusConflict, msg, err))
	case errors.Is(err, rulestore.ErrRuleSetNotFound), errors.Is(err, record_scoring.ErrRecordNotFound):
		writeJSON(w, r, http.StatusNotFound, NotFoundResponse(msg, err))
	case errors.Is(err, record_scoring.ErrInvalidRecord):
		writeJSON(w, r, http.StatusBadRequest, BadRequestResponse(msg, err))
	default:
		slog.Error(msg, "path", r.URL.Path, "error", err)
		writeJSON(w, r, http.StatusInternalServerError, InternalErrorResponse(msg, err))
	}
}

// queryInt 读取整数查询参数，无法解析时使用默认值
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}
	return v
}
