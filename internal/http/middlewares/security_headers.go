package middlewares

import (
	"github.com/gin-gonic/gin"
)

// The API serves JSON only, so the CSP can deny everything.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"X-XSS-Protection":        "0",
	"Content-Security-Policy": "default-src 'none'",
	"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
	"Cache-Control":           "no-store",
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range securityHeaders {
			c.Header(k, v)
		}

		c.Next()
	}
}
