package controller

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// SaveProgressRequest 整条进度记录，省略的字段保留原值
type SaveProgressRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	AlgorithmID string `json:"algorithm_id" binding:"required"`
	model.ProgressPatch
}

type RateRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

// @Summary 用户进度列表
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.UserProgress}
// @Router /progress/{userId} [get]
func (c *ProgressController) List(ctx *gin.Context) {
	rows, err := c.ProgressService.List(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 进度汇总
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=model.ProgressSummary}
// @Router /progress/{userId}/summary [get]
func (c *ProgressController) Summary(ctx *gin.Context) {
	summary, err := c.ProgressService.Summary(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 单个算法的进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Failure 404 {object} util.Response
// @Router /progress/{userId}/algorithms/{algorithmId} [get]
func (c *ProgressController) Get(ctx *gin.Context) {
	p, err := c.ProgressService.Get(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if p == nil {
		util.NotFound(ctx, "Progress not found")
		return
	}
	util.Success(ctx, p)
}

// @Summary 保存进度
// @Description 按 (user_id, algorithm_id) 写入整条记录
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SaveProgressRequest true "进度"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /progress [post]
func (c *ProgressController) Save(ctx *gin.Context) {
	var req SaveProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !util.CanActFor(ctx, req.UserID) {
		util.Forbidden(ctx)
		return
	}

	result, err := c.ProgressService.Upsert(ctx.Request.Context(), req.UserID, req.AlgorithmID, req.ProgressPatch)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Progress updated successfully", gin.H{
		"user_id":      result.Progress.UserID,
		"algorithm_id": result.Progress.AlgorithmID,
		"status":       result.Progress.Status,
		"achievements": result.Unlocked,
	})
}

// @Summary 开始学习
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Router /progress/{userId}/algorithms/{algorithmId}/start [post]
func (c *ProgressController) Start(ctx *gin.Context) {
	result, err := c.ProgressService.Start(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 更新进度
// @Description 只修改请求中出现的字段，time_spent 不允许减少
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Param body body model.ProgressPatch true "修改内容"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Failure 404 {object} util.Response
// @Router /progress/{userId}/algorithms/{algorithmId} [patch]
func (c *ProgressController) Update(ctx *gin.Context) {
	var patch model.ProgressPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.ProgressService.Update(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"), patch)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 完成算法
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Router /progress/{userId}/algorithms/{algorithmId}/complete [post]
func (c *ProgressController) Complete(ctx *gin.Context) {
	result, err := c.ProgressService.Complete(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 完成章节
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Param sectionId path string true "章节ID"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Router /progress/{userId}/algorithms/{algorithmId}/sections/{sectionId}/complete [post]
func (c *ProgressController) CompleteSection(ctx *gin.Context) {
	result, err := c.ProgressService.CompleteSection(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"), ctx.Param("sectionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 切换收藏
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Router /progress/{userId}/algorithms/{algorithmId}/bookmark [post]
func (c *ProgressController) Bookmark(ctx *gin.Context) {
	result, err := c.ProgressService.Bookmark(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 评分
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param algorithmId path string true "算法ID"
// @Param body body RateRequest true "1-5 分"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Failure 400 {object} util.Response
// @Router /progress/{userId}/algorithms/{algorithmId}/rate [post]
func (c *ProgressController) Rate(ctx *gin.Context) {
	var req RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.ProgressService.Rate(ctx.Request.Context(), ctx.Param("userId"), ctx.Param("algorithmId"), *req.Rating)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
