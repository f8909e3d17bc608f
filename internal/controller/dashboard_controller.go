package controller

import (
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// @Summary 仪表盘统计
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Router /dashboard/stats [get]
func (c *DashboardController) Stats(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.Stats())
}

// @Summary 最近动态
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response{data=[]service.DashboardActivity}
// @Router /dashboard/activity [get]
func (c *DashboardController) Activity(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.Activity())
}

// @Summary 推荐算法
// @Tags 仪表盘
// @Produce json
// @Success 200 {object} util.Response{data=[]service.RecommendedAlgorithm}
// @Router /dashboard/recommended [get]
func (c *DashboardController) Recommended(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.Recommended())
}
