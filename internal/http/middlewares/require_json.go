package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON refuses non-JSON bodies on mutating methods before any handler
// reads them. Booking and purchase POSTs carry no body at all; those pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}

			// ContentType strips parameters like charset
			if c.ContentType() != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json",
					},
				})
				return
			}
		}

		c.Next()
	}
}
