package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// Logger stamps every request with a trace id and logs the outcome.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()
		c.Set(string(ctxmanage.TraceIdKey), traceId)

		start := time.Now()
		c.Next()

		slog.Info("request completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()),
			slog.Duration("Duration", time.Since(start)),
		)
	}
}
