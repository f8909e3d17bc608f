package app

import (
	"ai_academy_backend/docs"
	"ai_academy_backend/internal/middleware"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/monitoring"
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Version = a.Config.Server.Version
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	if s.storage.IsLocal() {
		router.Static("/uploads", a.Config.Storage.LocalPath)
	}

	api := router.Group("/api")
	api.Use(a.rateLimitMiddleware(a.Config))

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(api, c)

	// 2. 需要授权的路由，路径中的用户必须是令牌主体
	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(a.Config), middleware.ActivityMiddleware(s.user))
	a.registerUserRoutes(authGroup, c)

	router.NoRoute(func(ctx *gin.Context) {
		util.NotFound(ctx, "Route not found", fmt.Sprintf("The route %s does not exist", ctx.Request.URL.RequestURI()))
	})
}

func (a *App) registerPublicRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/health", c.health.HealthCheck)
	api.GET("/connection-status", c.health.ConnectionStatus)

	algorithms := api.Group("/algorithms")
	{
		algorithms.GET("", c.algorithm.List)
		algorithms.GET("/categories", c.algorithm.Categories)
		algorithms.GET("/search", c.algorithm.Search)
		algorithms.GET("/stats", c.algorithm.Stats)
		algorithms.GET("/detailed/:id", c.algorithm.Detail)
		algorithms.GET("/category/:category", c.algorithm.ByCategory)
	}

	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/stats", c.dashboard.Stats)
		dashboard.GET("/activity", c.dashboard.Activity)
		dashboard.GET("/recommended", c.dashboard.Recommended)
	}

	api.GET("/achievements/definitions", c.achievement.Definitions)
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers) {
	ownsID := middleware.OwnerMiddleware("id")
	ownsUser := middleware.OwnerMiddleware("userId")

	users := api.Group("/users")
	{
		users.POST("", c.user.UpsertUser)
		users.GET("/:id", ownsID, c.user.GetUser)
		users.PUT("/:id", ownsID, c.user.UpdateUser)
		users.POST("/:id/avatar", ownsID, c.user.UploadAvatar)
	}

	progress := api.Group("/progress")
	{
		progress.POST("", c.progress.Save)
		progress.GET("/:userId", ownsUser, c.progress.List)
		progress.GET("/:userId/summary", ownsUser, c.progress.Summary)

		algorithm := progress.Group("/:userId/algorithms/:algorithmId", ownsUser)
		algorithm.GET("", c.progress.Get)
		algorithm.PATCH("", c.progress.Update)
		algorithm.POST("/start", c.progress.Start)
		algorithm.POST("/complete", c.progress.Complete)
		algorithm.POST("/sections/:sectionId/complete", c.progress.CompleteSection)
		algorithm.POST("/bookmark", c.progress.Bookmark)
		algorithm.POST("/rate", c.progress.Rate)
	}

	achievements := api.Group("/achievements")
	{
		achievements.POST("", c.achievement.Unlock)
		achievements.GET("/:userId", ownsUser, c.achievement.List)
		achievements.POST("/:userId/check", ownsUser, c.achievement.Check)
	}

	chat := api.Group("/chat")
	{
		chat.POST("", c.chat.Send)
		chat.GET("/:userId", ownsUser, c.chat.History)
	}

	analytics := api.Group("/analytics")
	{
		analytics.GET("/:userId", ownsUser, c.analytics.Get)
		analytics.POST("/:userId/refresh", ownsUser, c.analytics.Refresh)
	}
}
