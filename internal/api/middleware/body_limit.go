package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/pkg/response"
)

// BodyLimit 请求体大小上限
// 附件的业务上限由系统设置 max_file_size_mb 控制，这里只拦截明显超限的请求
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		// 分块上传没有 Content-Length，超限只能在读取时发现
		if c.Writer.Written() {
			return
		}
		for _, ge := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(ge.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				return
			}
		}
	}
}
