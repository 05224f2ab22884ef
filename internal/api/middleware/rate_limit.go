package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/pkg/redis"
	"proyecto-fct/backend/pkg/response"
)

// RateLimit 按 (客户端 IP, 路由) 计数的限流中间件，用于登录与注册
// rdb 为 nil 或 Redis 出错时放行，与 JWTAuth 的黑名单策略一致
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "fct:ratelimit:" + c.FullPath() + ":" + c.ClientIP()
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", retryAfter)
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
