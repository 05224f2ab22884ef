package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/pkg/metrics"
)

// Metrics 记录 HTTP 请求耗时，path 使用路由模板避免高基数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
