package middleware

import (
	"ai_academy_backend/internal/config"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/logger"
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer 令牌；未启用认证时直接放行
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	enabled := cfg.Auth.Enabled
	secret := cfg.JWT.Secret
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		c.Set(util.AuthRequiredKey, true)

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
		if tokenString == "" {
			util.Unauthorized(c)
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			return
		}

		c.Set(util.ClaimsKey, claims)
		c.Next()
	}
}

// OwnerMiddleware 路径参数中的用户必须是令牌主体
func OwnerMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !util.CanActFor(c, c.Param(param)) {
			util.Forbidden(c)
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(ctx context.Context, userID string)
}

const lastSeenTimeout = 5 * time.Second

func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步更新，不阻塞主流程；请求结束后上下文会取消，单独设超时
			userID := claims.Subject()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), lastSeenTimeout)
				defer cancel()
				repo.UpdateLastSeen(ctx, userID)
			}()
		}
		c.Next()
	}
}
