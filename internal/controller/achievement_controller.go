package controller

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// UnlockAchievementRequest 手动写入成就；achievement_id 命中规则表时可省略元数据
type UnlockAchievementRequest struct {
	UserID        string                    `json:"user_id" binding:"required"`
	AchievementID string                    `json:"achievement_id" binding:"required,max=64"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description"`
	Icon          string                    `json:"icon"`
	Category      model.AchievementCategory `json:"category" binding:"omitempty,oneof=learning performance consistency exploration social milestone"`
	Points        int                       `json:"points" binding:"min=0"`
	Rarity        model.AchievementRarity   `json:"rarity" binding:"omitempty,oneof=common uncommon rare epic legendary"`
}

func (r UnlockAchievementRequest) record(rules []model.AchievementDefinition) *model.Achievement {
	a := &model.Achievement{
		UserID:        r.UserID,
		AchievementID: r.AchievementID,
		Name:          r.Name,
		Description:   r.Description,
		Icon:          r.Icon,
		Category:      r.Category,
		Points:        r.Points,
		Rarity:        r.Rarity,
	}
	for _, def := range rules {
		if def.ID != r.AchievementID {
			continue
		}
		if a.Name == "" {
			a.Name = def.Name
		}
		if a.Description == "" {
			a.Description = def.Description
		}
		if a.Icon == "" {
			a.Icon = def.Icon
		}
		if a.Category == "" {
			a.Category = def.Category
		}
		if a.Points == 0 {
			a.Points = def.Points
		}
		if a.Rarity == "" {
			a.Rarity = def.Rarity
		}
	}
	return a
}

// @Summary 成就定义
// @Description 全部可解锁成就及其条件
// @Tags 成就系统
// @Produce json
// @Success 200 {object} util.Response{data=[]model.AchievementDefinition}
// @Router /achievements/definitions [get]
func (c *AchievementController) Definitions(ctx *gin.Context) {
	defs := c.AchievementService.Definitions()
	util.SuccessWithCount(ctx, defs, len(defs))
}

// @Summary 获取用户成就
// @Description 最新解锁的在前
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Achievement}
// @Router /achievements/{userId} [get]
func (c *AchievementController) List(ctx *gin.Context) {
	achievements, err := c.AchievementService.List(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, achievements)
}

// @Summary 解锁成就
// @Description 重复解锁不报错，created 为 false
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UnlockAchievementRequest true "成就"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /achievements [post]
func (c *AchievementController) Unlock(ctx *gin.Context) {
	var req UnlockAchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !util.CanActFor(ctx, req.UserID) {
		util.Forbidden(ctx)
		return
	}

	a := req.record(c.AchievementService.Definitions())
	if a.Name == "" || a.Category == "" || a.Rarity == "" {
		util.BadRequest(ctx, "name, category and rarity are required for custom achievements")
		return
	}

	created, err := c.AchievementService.Unlock(ctx.Request.Context(), a)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"created":     created,
		"achievement": a,
	})
}

// @Summary 检查成就
// @Description 按当前进度评估规则，返回本次新解锁的成就
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Achievement}
// @Router /achievements/{userId}/check [post]
func (c *AchievementController) Check(ctx *gin.Context) {
	unlocked, err := c.AchievementService.Evaluate(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithCount(ctx, unlocked, len(unlocked))
}
