package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const traceHeader = "X-Request-ID"

// TraceMiddleware assigns each request a trace ID, taken from the
// X-Request-ID header when the caller supplies one, and echoes it back
// in the response so callers can correlate logs.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = NewTraceID()
		}
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))
		c.Header(traceHeader, traceID)
		c.Next()
	}
}

// RequestLogMiddleware logs one line per request with method, path,
// status, latency and trace ID.
func RequestLogMiddleware(log *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("trace_id", GetTraceID(c.Request.Context())),
		)
	}
}
