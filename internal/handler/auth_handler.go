// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"

	"uvlhub/internal/service"
	"uvlhub/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理注册、登录与 token 相关的 API 请求。
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup 处理用户注册请求。
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Signup: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "email, password, name and surname are required"})
		return
	}

	user, err := h.authService.Signup(req)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "User registered successfully", user)
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "email and password are required"})
		return
	}

	accessToken, refreshToken, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		log.Warnf("Login: authentication failed for '%s', error: %v", req.Email, err)
		writeError(c, err)
		return
	}

	log.Infof("User '%s' logged in successfully", req.Email)
	ok(c, "Login successful", gin.H{"token": accessToken, "refreshToken": refreshToken})
}

// Logout 将当前 token 加入黑名单。
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.authService.Logout(c.Request.Context(), tokenString); err != nil {
		log.Error("Logout: Failed to logout", err)
		writeError(c, err)
		return
	}
	ok(c, "Logout successful", nil)
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 处理刷新 token 的请求。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "refreshToken is required"})
		return
	}

	newAccessToken, newRefreshToken, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Warnf("RefreshToken: Failed to refresh token, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid refresh token"})
		return
	}
	ok(c, "Token refreshed successfully", gin.H{"token": newAccessToken, "refreshToken": newRefreshToken})
}

// SendVerificationRequest 是申请邮箱验证的请求体。
type SendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

// SendVerification 为邮箱签发验证 token。
func (h *AuthHandler) SendVerification(c *gin.Context) {
	var req SendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Email is required."})
		return
	}
	tok, err := h.authService.SendVerification(req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Verification token generated", gin.H{"token": tok})
}

// Verify 校验邮箱验证 token。
func (h *AuthHandler) Verify(c *gin.Context) {
	email, err := h.authService.VerifyEmail(c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Email verified", gin.H{"email": email})
}

// Me 返回当前登录用户及其资料。
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}
	ok(c, "success", user)
}
