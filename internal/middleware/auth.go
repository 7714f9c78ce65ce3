// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"uvlhub/internal/service"
	"uvlhub/pkg/log"
	"uvlhub/pkg/token"

	"github.com/gin-gonic/gin"
)

// 上下文中保存当前用户与 claims 的键
const (
	ContextUserKey   = "user"
	ContextClaimsKey = "claims"
)

// bearerToken 从 Authorization 请求头中提取 token。
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(authHeader, bearerPrefix), true
}

// authenticate 验证 token、检查黑名单并加载用户，失败时返回面向用户的错误信息。
func authenticate(c *gin.Context, jwtManager *token.JWTManager, authService service.AuthService, tokenString string) string {
	claims, err := jwtManager.VerifyToken(tokenString)
	if err != nil {
		return "无效或已过期的 token"
	}
	revoked, err := authService.IsTokenRevoked(c.Request.Context(), claims)
	if err != nil {
		log.Errorf("检查 token 黑名单失败: %v", err)
		return "无法校验 token"
	}
	if revoked {
		return "token 已注销"
	}

	// 使用 claims 中的用户 ID 获取完整的用户信息
	user, err := authService.GetProfile(claims.UserID)
	if err != nil {
		return "用户不存在"
	}
	c.Set(ContextUserKey, user)
	c.Set(ContextClaimsKey, claims)
	return ""
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		if msg := authenticate(c, jwtManager, authService, tokenString); msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth 在携带有效 token 时加载用户，否则以匿名身份继续。
func OptionalAuth(jwtManager *token.JWTManager, authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if msg := authenticate(c, jwtManager, authService, tokenString); msg != "" {
				log.Debugf("可选认证失败，按匿名用户处理: %s", msg)
			}
		}
		c.Next()
	}
}
