/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活与就绪检查
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查不访问外部依赖；就绪检查需要数据库可用
 * @dependencies net/http, gorm.io/gorm
 * @refs service/database/connection.go
 */

package controllers

import (
	"net/http"
	"recordquality-service/service/database"
	"time"

	"github.com/go-chi/render"
	"gorm.io/gorm"
)

const (
	serviceName    = "recordquality-service"
	serviceVersion = "1.0.0"
)

// HealthController 健康检查控制器
type HealthController struct {
	db *gorm.DB
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"recordquality-service"`
	Error     string    `json:"error,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查数据库连接是否可用
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	}

	if c.db == nil {
		response.Status = "not_ready"
		response.Error = "数据库未初始化"
		writeJSON(w, r, http.StatusServiceUnavailable, response)
		return
	}
	if err := database.Ping(c.db); err != nil {
		response.Status = "not_ready"
		response.Error = err.Error()
		writeJSON(w, r, http.StatusServiceUnavailable, response)
		return
	}

	render.JSON(w, r, response)
}
