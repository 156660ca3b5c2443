package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole gates a route group on the role carried in the access token.
// RequireAuth must run first; a request without identity context is a 401,
// the wrong role is a 403.
func (m *AuthMiddleware) RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		for _, want := range allowed {
			if role == want {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "forbidden", strings.Join(allowed, " or ")+" role required")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
