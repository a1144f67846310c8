package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "school-records/pkg/errors"
	"school-records/pkg/jwt"
	"school-records/pkg/redis"
	"school-records/pkg/response"
)

// 上下文键：认证中间件注入，Handler 层读取
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// IdentityResolver 按 user_id 读取账号当前状态并返回库中角色
// 账号不存在返回 NotFound 类错误，已停用返回 Forbidden 类错误
type IdentityResolver func(ctx context.Context, userID string) (string, error)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token；
// rdb 非 nil 时拒绝已登出（拉黑）的 Token，Redis 出错时降级放行；
// resolve 非 nil 时以账号当前角色为准，拒绝已删除或已停用的账号
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, resolve IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		setClaims(c, claims)

		if resolve != nil {
			role, err := resolve(c.Request.Context(), claims.UserID)
			if err != nil {
				switch apperrors.KindOf(err) {
				case apperrors.KindNotFound:
					response.Unauthorized(c, 10002, "账号不存在")
				case apperrors.KindForbidden:
					response.Forbidden(c, 10003, err.Error())
				default:
					_ = c.Error(err)
					response.InternalError(c)
				}
				c.Abort()
				return
			}
			c.Set(CtxRole, role)
		}
		c.Next()
	}
}

// OptionalJWTAuth 可选认证：携带有效 Access Token 时注入身份，否则以匿名身份继续
// 用于自助注册等公开接口（管理员调用时需识别其身份）；
// 账号已删除或已停用时同样按匿名处理
func OptionalJWTAuth(jwtMgr *jwt.Manager, resolve IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtMgr.ParseToken(token)
		if err != nil || claims.TokenType != jwt.TokenTypeAccess {
			c.Next()
			return
		}
		if resolve != nil {
			role, err := resolve(c.Request.Context(), claims.UserID)
			if err != nil {
				c.Next()
				return
			}
			claims.Role = role
		}
		setClaims(c, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxTokenJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExp, claims.ExpiresAt.Time)
	}
}
