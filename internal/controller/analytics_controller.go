package controller

import (
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 学习分析
// @Description 首次访问时创建全零记录
// @Tags 学习分析
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=model.LearningAnalytics}
// @Router /analytics/{userId} [get]
func (c *AnalyticsController) Get(ctx *gin.Context) {
	analytics, err := c.AnalyticsService.Get(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

// @Summary 重新计算学习分析
// @Tags 学习分析
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=model.LearningAnalytics}
// @Router /analytics/{userId}/refresh [post]
func (c *AnalyticsController) Refresh(ctx *gin.Context) {
	analytics, err := c.AnalyticsService.Refresh(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}
