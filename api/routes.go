/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference SPEC_FULL.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs service/init.go, api/controllers
 */

package api

import (
	"recordquality-service/api/controllers"
	"recordquality-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Controllers 路由使用的控制器集合
type Controllers struct {
	Health  *controllers.HealthController
	RuleSet *controllers.RuleSetController
	Catalog *controllers.CatalogController
	Scoring *controllers.ScoringController
	Record  *controllers.RecordController
}

// NewControllers 基于已初始化的全局服务创建控制器
func NewControllers() Controllers {
	return Controllers{
		Health:  controllers.NewHealthController(service.DB),
		RuleSet: controllers.NewRuleSetController(service.GlobalRuleStore),
		Catalog: controllers.NewCatalogController(service.GlobalCatalog),
		Scoring: controllers.NewScoringController(service.GlobalScoringEngine, service.GlobalScoringService),
		Record:  controllers.NewRecordController(service.GlobalRecordService, service.GlobalRescoreScheduler),
	}
}

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	RegisterRoutes(r, NewControllers())
}

// RegisterRoutes 注册中间件与路由
func RegisterRoutes(r *chi.Mux, c Controllers) {
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
	r.Get("/health", c.Health.Health)
	r.Get("/ready", c.Health.Ready)

	// 规则集管理
	r.Route("/rule-sets", func(r chi.Router) {
		r.Get("/", c.RuleSet.ListRuleSets)
		r.Post("/", c.RuleSet.CreateRuleSet)
		r.Get("/{record_type}", c.RuleSet.GetRuleSet)
		r.Put("/{record_type}/rules", c.RuleSet.ReplaceRules)
		r.Delete("/{record_type}", c.RuleSet.DeleteRuleSet)
	})

	// 字段目录
	r.Get("/catalog/{record_type}/fields", c.Catalog.GetFields)

	// 即时评分
	r.Route("/scoring", func(r chi.Router) {
		r.Post("/evaluate", c.Scoring.Evaluate)
		r.Post("/{record_type}/evaluate", c.Scoring.EvaluateRecordType)
	})

	// 记录管理
	r.Route("/records", func(r chi.Router) {
		r.Get("/", c.Record.ListRecords)
		r.Post("/batch", c.Record.SaveRecords)
		r.Post("/rescore", c.Record.Rescore)
		r.Get("/{id}", c.Record.GetRecord)
	})
}
