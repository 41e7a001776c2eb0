package middleware

import (
	"CommandCenter/internal/pkg/response"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 审核类操作要求当前用户至少拥有一个指定角色
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice("roles")

		allowed := slices.ContainsFunc(requiredRoles, func(r string) bool {
			return slices.Contains(roles, r)
		})
		if !allowed {
			response.Fail(c, response.Forbidden, "权限不足：无权访问该资源")
			c.Abort()
			return
		}

		c.Next()
	}
}
