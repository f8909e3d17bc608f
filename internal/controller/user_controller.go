package controller

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"
	"fmt"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetUser godoc
// @Summary 获取用户
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpsertUser godoc
// @Summary 创建或更新用户
// @Description 登录后同步身份信息，邮箱被其他用户占用时返回 409
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.UpsertUserRequest true "用户信息"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /users [post]
func (c *UserController) UpsertUser(ctx *gin.Context) {
	var req service.UpsertUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !util.CanActFor(ctx, req.ID) {
		util.Forbidden(ctx)
		return
	}

	if _, err := c.UserService.Upsert(ctx.Request.Context(), req); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.SuccessMessage(ctx, "User created/updated successfully", gin.H{
		"id":           req.ID,
		"email":        req.Email,
		"display_name": req.DisplayName,
		"photo_url":    req.PhotoURL,
	})
}

// UpdateUser godoc
// @Summary 修改资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Param body body model.ProfileUpdate true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var upd model.ProfileUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), ctx.Param("id"), upd)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Tags 用户
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "用户ID"
// @Param file formData file true "头像图片"
// @Success 200 {object} util.Response{data=model.User}
// @Router /users/{id}/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if fileHeader.Size > util.MaxAvatarSize {
		util.BadRequest(ctx, fmt.Sprintf("%s: limit is %d bytes", util.ErrFileTooLarge, util.MaxAvatarSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	user, err := c.UserService.UploadAvatar(ctx.Request.Context(), ctx.Param("id"), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
