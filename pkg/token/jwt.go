// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 邮箱验证 token 的用途标识，避免与登录 token 混用。
const purposeEmailVerify = "email-verify"

// 登录 token 的种类，access 与 refresh 不能互相替代。
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey       []byte
	accessTokenDur  time.Duration
	refreshTokenDur time.Duration
	verifyTokenDur  time.Duration
}

// CustomClaims 是登录 token 中携带的用户信息。
type CustomClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Kind   string `json:"typ"`
	// SessionID 由同一次登录签发的 access 与 refresh token 共享，注销时整体吊销。
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// VerificationClaims 是邮箱验证 token 中携带的信息。
type VerificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// verifyMaxAgeSeconds 为邮箱验证 token 的有效期（秒）。
func NewJWTManager(secret string, accessTokenExpireHours, refreshTokenExpireDays, verifyMaxAgeSeconds int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		accessTokenDur:  time.Hour * time.Duration(accessTokenExpireHours),
		refreshTokenDur: time.Duration(refreshTokenExpireDays) * 24 * time.Hour,
		verifyTokenDur:  time.Duration(verifyMaxAgeSeconds) * time.Second,
	}
}

// GenerateToken 生成一个新会话的 access token。
func (m *JWTManager) GenerateToken(userID uint, email string) (string, error) {
	return m.sign(newClaims(userID, email, KindAccess, uuid.NewString(), m.accessTokenDur))
}

// GenerateTokenPair 为会话 sessionID 签发 access 与 refresh token，sessionID 为空时新建会话。
func (m *JWTManager) GenerateTokenPair(userID uint, email, sessionID string) (access, refresh string, err error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if access, err = m.sign(newClaims(userID, email, KindAccess, sessionID, m.accessTokenDur)); err != nil {
		return "", "", err
	}
	if refresh, err = m.sign(newClaims(userID, email, KindRefresh, sessionID, m.refreshTokenDur)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// RefreshTokenDuration 返回 refresh token 的有效期，也是会话吊销记录的保留时长。
func (m *JWTManager) RefreshTokenDuration() time.Duration {
	return m.refreshTokenDur
}

// VerifyToken 验证 access token 并返回 claims。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	return m.verifyKind(tokenString, KindAccess)
}

// VerifyRefreshToken 验证 refresh token 并返回 claims。
func (m *JWTManager) VerifyRefreshToken(tokenString string) (*CustomClaims, error) {
	return m.verifyKind(tokenString, KindRefresh)
}

func (m *JWTManager) verifyKind(tokenString, kind string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateVerificationToken 为邮箱生成一个限时的验证 token。
func (m *JWTManager) GenerateVerificationToken(email string) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		Email:   email,
		Purpose: purposeEmailVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.verifyTokenDur)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return m.sign(claims)
}

// VerifyVerificationToken 校验验证 token，返回其中的邮箱。
func (m *JWTManager) VerifyVerificationToken(tokenString string) (string, error) {
	claims := &VerificationClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return "", err
	}
	if claims.Purpose != purposeEmailVerify || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func newClaims(userID uint, email, kind, sessionID string, dur time.Duration) CustomClaims {
	now := time.Now()
	return CustomClaims{
		UserID:    userID,
		Email:     email,
		Kind:      kind,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti 用于注销后的黑名单
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

func (m *JWTManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

func (m *JWTManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
