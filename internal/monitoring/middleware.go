package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware reuses a caller-supplied X-Request-ID or mints a UUID,
// and stores it on the context for logs and error bodies.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(apperrors.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MonitoringMiddleware records request metrics and logs each request.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(status)
		if status >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(c.GetString(apperrors.RequestIDKey), c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, duration)

		if duration > 5*time.Second {
			logger.Warn("Slow request", "path", c.Request.URL.Path, "duration_ms", duration.Milliseconds())
		}
	}
}
