package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/domain/user"
)

// RequireRoles gates a route on the caller's role. No roles means any
// authenticated caller. Must run after RequireSession.
func (m *AuthMiddleware) RequireRoles(required ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)

		if !ok {
			abortUnauthorized(c)
			return
		}

		err := auth.Authorize(u, required...)

		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				abortUnauthorized(c)
				return
			}

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Insufficient role",
				},
			})
			return
		}

		c.Next()
	}
}
