package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"school-records/internal/api/middleware"
	"school-records/internal/policy"
	"school-records/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// MustGetSubject 构造调用方身份（学生 / 教师档案 ID 由 Service 层补全）
func MustGetSubject(c *gin.Context) (policy.Subject, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return policy.Subject{}, false
	}
	role := c.GetString(middleware.CtxRole)
	if role == "" {
		response.Unauthorized(c, CodeUnauthorized, "未认证")
		return policy.Subject{}, false
	}
	return policy.Subject{UserID: userID, Role: role}, true
}

// optionalSubject 可选认证接口的调用方身份，匿名时为零值
func optionalSubject(c *gin.Context) policy.Subject {
	return policy.Subject{
		UserID: c.GetString(middleware.CtxUserID),
		Role:   c.GetString(middleware.CtxRole),
	}
}

// tokenInfo 当前 Access Token 的 jti 与过期时间（登出用）
func tokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString(middleware.CtxTokenJTI), c.GetTime(middleware.CtxTokenExp)
}
