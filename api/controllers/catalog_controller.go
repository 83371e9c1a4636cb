/*
 * @module api/controllers/catalog_controller
 * @description 字段目录控制器，供规则编辑界面选择字段
 * @architecture MVC架构 - 控制器层
 * @documentReference SPEC_FULL.md
 * @stateFlow 请求 -> 字段目录快照 -> 响应
 * @rules 未知记录类型返回空列表
 * @dependencies github.com/go-chi/chi/v5
 * @refs service/catalog/catalog.go
 */

package controllers

import (
	"net/http"
	"recordquality-service/service/catalog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// CatalogController 字段目录控制器
type CatalogController struct {
	catalog catalog.Catalog
}

// NewCatalogController 创建字段目录控制器
func NewCatalogController(cat catalog.Catalog) *CatalogController {
	if cat == nil {
		cat = catalog.EmptyCatalog{}
	}
	return &CatalogController{catalog: cat}
}

// GetFields 获取记录类型的可用字段
// @Summary 获取可用字段
// @Tags 字段目录
// @Produce json
// @Param record_type path string true "记录类型"
// @Success 200 {object} APIResponse{data=[]catalog.FieldInfo} "获取成功"
// @Router /catalog/{record_type}/fields [get]
func (c *CatalogController) GetFields(w http.ResponseWriter, r *http.Request) {
	fields := c.catalog.Fields(chi.URLParam(r, "record_type"))
	if fields == nil {
		fields = []catalog.FieldInfo{}
	}
	render.JSON(w, r, SuccessResponse("获取字段列表成功", fields))
}
