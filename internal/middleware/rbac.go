package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
	"github.com/noah-isme/sma-finance-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. SUPERADMIN is always allowed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
