package controller

import (
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

type AlgorithmController struct {
	Catalog *service.CatalogService
}

func NewAlgorithmController(catalog *service.CatalogService) *AlgorithmController {
	return &AlgorithmController{Catalog: catalog}
}

// @Summary 算法列表
// @Description 返回全部算法的精简信息
// @Tags 算法目录
// @Produce json
// @Success 200 {object} util.Response{data=[]model.AlgorithmSummary}
// @Router /algorithms [get]
func (c *AlgorithmController) List(ctx *gin.Context) {
	algorithms := c.Catalog.List()
	util.SuccessWithCount(ctx, algorithms, len(algorithms))
}

// @Summary 分类汇总
// @Tags 算法目录
// @Produce json
// @Success 200 {object} util.Response{data=[]model.CategorySummary}
// @Router /algorithms/categories [get]
func (c *AlgorithmController) Categories(ctx *gin.Context) {
	categories := c.Catalog.Categories()
	util.SuccessWithCount(ctx, categories, len(categories))
}

// @Summary 搜索算法
// @Description 按名称、描述、标签模糊匹配，不区分大小写
// @Tags 算法目录
// @Produce json
// @Param q query string false "关键词"
// @Success 200 {object} util.Response{data=[]model.Algorithm}
// @Router /algorithms/search [get]
func (c *AlgorithmController) Search(ctx *gin.Context) {
	algorithms := c.Catalog.Search(ctx.Query("q"))
	util.SuccessWithCount(ctx, algorithms, len(algorithms))
}

// @Summary 目录统计
// @Tags 算法目录
// @Produce json
// @Success 200 {object} util.Response{data=model.CatalogStats}
// @Router /algorithms/stats [get]
func (c *AlgorithmController) Stats(ctx *gin.Context) {
	util.Success(ctx, c.Catalog.Stats())
}

// @Summary 算法详情
// @Tags 算法目录
// @Produce json
// @Param id path string true "算法ID"
// @Success 200 {object} util.Response{data=model.Algorithm}
// @Failure 404 {object} util.Response
// @Router /algorithms/detailed/{id} [get]
func (c *AlgorithmController) Detail(ctx *gin.Context) {
	id := ctx.Param("id")
	algorithm, err := c.Catalog.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrAlgorithmNotFound) {
			util.NotFound(ctx, "Algorithm not found", fmt.Sprintf("Algorithm with ID '%s' does not exist", id))
			return
		}
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, algorithm)
}

// @Summary 按分类获取算法
// @Tags 算法目录
// @Produce json
// @Param category path string true "分类名称"
// @Success 200 {object} util.Response{data=[]model.AlgorithmSummary}
// @Router /algorithms/category/{category} [get]
func (c *AlgorithmController) ByCategory(ctx *gin.Context) {
	algorithms := c.Catalog.ListByCategory(ctx.Param("category"))
	util.SuccessWithCount(ctx, algorithms, len(algorithms))
}
