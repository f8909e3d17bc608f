package controller

import (
	"ai_academy_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Version string
}

func NewHealthController(db *gorm.DB, version string) *HealthController {
	return &HealthController{DB: db, Version: version}
}

// @Summary 健康检查
// @Description 检查服务与数据库状态
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"version":   c.Version,
		"components": gin.H{
			"database": "up",
		},
	})
}

// @Summary 连接状态
// @Description 前端离线检测使用的轻量探针
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /connection-status [get]
func (c *HealthController) ConnectionStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"online":    true,
		"timestamp": time.Now().UTC(),
		"message":   "Server is online and ready to serve requests",
	})
}
