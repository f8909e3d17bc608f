package util

import (
	"ai_academy_backend/pkg/logger"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Offline *bool       `json:"offline,omitempty"`
}

var exposeErrors atomic.Bool

// SetExposeErrors 开发环境下 500 响应携带原始错误信息
func SetExposeErrors(enabled bool) {
	exposeErrors.Store(enabled)
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithCount(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Count:   &count,
	})
}

func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, code int, errMsg string, message ...string) {
	resp := Response{Success: false, Error: errMsg}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.AbortWithStatusJSON(code, resp)
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "Bad request", message)
}

func NotFound(c *gin.Context, errMsg string, message ...string) {
	Error(c, http.StatusNotFound, errMsg, message...)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, "Conflict", message)
}

func InternalServerError(c *gin.Context, err error) {
	message := "Internal server error"
	if err != nil && exposeErrors.Load() {
		message = err.Error()
	}
	offline := false
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "Something went wrong!",
		Message: message,
		Offline: &offline,
	})
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(RequestIDKey)),
	)
	InternalServerError(c, err)
}

// HandleError 按错误类型映射 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	switch {
	case IsValidationError(err):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrUserNotFound):
		NotFound(c, "User not found")
	case errors.Is(err, ErrAlgorithmNotFound):
		NotFound(c, "Algorithm not found")
	case errors.Is(err, ErrProgressNotFound):
		NotFound(c, "Progress not found")
	case errors.Is(err, ErrEmailRegistered):
		Conflict(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
