package controller

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// ChatRequest 同时接受 user_id 和前端的 userId，user_id 优先
type ChatRequest struct {
	Message      string             `json:"message"`
	UserID       string             `json:"user_id"`
	LegacyUserID string             `json:"userId"`
	Context      *model.ChatContext `json:"context"`
}

func (r *ChatRequest) userID() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.LegacyUserID
}

// @Summary AI 助教对话
// @Tags AI助教
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChatRequest true "提问"
// @Success 200 {object} util.Response{data=model.ChatReply}
// @Failure 400 {object} util.Response
// @Router /chat [post]
func (c *ChatController) Send(ctx *gin.Context) {
	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	userID := req.userID()
	// 启用认证时以令牌主体为准
	if claims := util.GetUserFromContext(ctx); claims != nil && userID == "" {
		userID = claims.Subject()
	}
	if userID != "" && !util.CanActFor(ctx, userID) {
		util.Forbidden(ctx)
		return
	}

	reply, err := c.ChatService.Send(ctx.Request.Context(), userID, req.Message, req.Context)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// @Summary 对话历史
// @Tags AI助教
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param limit query int false "条数" default(50)
// @Success 200 {object} util.Response{data=[]model.ChatMessage}
// @Router /chat/{userId} [get]
func (c *ChatController) History(ctx *gin.Context) {
	limit := util.ParseLimit(ctx.Query("limit"), service.DefaultHistoryLimit, service.MaxHistoryLimit)
	messages, err := c.ChatService.History(ctx.Request.Context(), ctx.Param("userId"), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithCount(ctx, messages, len(messages))
}
