package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	ctxRequestIDKey = "request_id"
)

// RequestID honors an inbound id from the proxy, otherwise mints one. The id
// is echoed on the response and rides along in error envelopes and logs.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(ctxRequestIDKey, id)

		ctx.Next()
	}
}

// RequestLogger writes one line per request after the handler chain ran.
// Severity follows the status class so 5xx lines stand out in the stream.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()

		if route == "" {
			route = ctx.Request.URL.Path // unmatched routes (404s)
		}

		method := ctx.Request.Method

		ctx.Next()

		status := ctx.Writer.Status()
		reqID, _ := stringFromContext(ctx, ctxRequestIDKey)

		level := slog.LevelInfo

		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		slog.Default().Log(ctx.Request.Context(), level, "http_request",
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
		)
	}
}
