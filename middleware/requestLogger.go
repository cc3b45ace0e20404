package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIdHeader = "X-Request-Id"

// RequestLogger tags each request with an id and logs one line when it
// completes.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(RequestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Header(RequestIdHeader, requestId)
		start := time.Now()

		c.Next()

		attrs := []any{
			"request_id", requestId,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			logger.Error("request failed", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
