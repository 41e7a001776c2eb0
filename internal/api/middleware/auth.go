package middleware

import (
	"CommandCenter/internal/pkg/consts"
	"CommandCenter/internal/pkg/redis"
	"CommandCenter/internal/pkg/response"
	"CommandCenter/internal/pkg/security"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验 Bearer Token，拒绝已拉黑的签名，并注入 user_id 与 roles
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "Token 缺失或格式错误")
			return
		}

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 缺失或格式错误")
			return
		}

		revoked, err := redis.GetValue(c.Request.Context(), consts.TokenBlacklistKey+signature)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check token blacklist failed", "err", err)
			response.Fail(c, response.InternalServerError, "未知错误")
			c.Abort()
			return
		}
		if revoked != "" {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil || claims.UserID == 0 {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), "user_id", claims.UserID))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Fail(c, response.Unauthorized, msg)
	c.Abort()
}
