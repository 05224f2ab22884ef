package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 前端下载附件/导出文件时需要读取文件名与请求 ID
var corsExposeHeaders = strings.Join([]string{"Content-Disposition", "X-Request-ID", "Retry-After"}, ", ")

// CORS 跨域中间件，仅对白名单中的 Origin 回写许可头
// 白名单包含 "*" 时接受任意来源，但不再携带凭证
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	wildcard := false
	for _, o := range allowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Header("Vary", "Origin")

		if origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
			} else if wildcard {
				c.Header("Access-Control-Allow-Origin", "*")
			}
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		// ── 预检请求 ──
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
