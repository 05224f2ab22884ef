package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"proyecto-fct/backend/internal/access"
	"proyecto-fct/backend/internal/service"
	"proyecto-fct/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 组合 user_id 与 role 为操作者
func MustGetActor(c *gin.Context) (access.Actor, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return access.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return access.Actor{}, false
	}
	return access.Actor{ID: id, Role: role}, true
}

// requestContext 附带客户端 IP 与 User-Agent，供审计日志使用
func requestContext(c *gin.Context) context.Context {
	return service.WithRequestMeta(c.Request.Context(), service.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}
