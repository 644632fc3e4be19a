package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/houzhh15/studybuddy/pkg/logger"
)

// RequestLogger 写入结构化请求日志并注入 request_id
// 客户端已带 X-Request-ID 时沿用，便于前端串联一次录音评估的多次请求
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		duration := time.Since(start)

		attrs := []any{
			"rid", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", duration.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if user := c.GetString(ContextUser); user != "" {
			attrs = append(attrs, "user", user)
		}
		logger.L().Info("http_request", attrs...)
	}
}
