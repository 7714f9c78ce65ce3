// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/hash"
	"uvlhub/pkg/log"
	"uvlhub/pkg/token"

	"gorm.io/gorm"
)

// SignupInput 是注册所需的信息，全部必填。
type SignupInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
}

// AuthService 接口定义了所有与认证和用户相关的业务操作。
type AuthService interface {
	Signup(in SignupInput) (*model.User, error)
	Login(email, password string) (accessToken, refreshToken string, err error)
	Logout(ctx context.Context, tokenString string) error
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	GetProfile(userID uint) (*model.User, error)
	IsEmailAvailable(email string) (bool, error)
	// SendVerification 为尚未注册的邮箱签发验证 token。
	SendVerification(email string) (string, error)
	// VerifyEmail 校验验证 token 并返回其中的邮箱。
	VerifyEmail(tokenString string) (string, error)
	// IsTokenRevoked 判断 token 是否已通过注销加入黑名单。
	IsTokenRevoked(ctx context.Context, claims *token.CustomClaims) (bool, error)
}

// authService 是 AuthService 接口的实现。
type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *token.JWTManager
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

// Signup 在一个事务中创建用户及其资料。
func (s *authService) Signup(in SignupInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)

	// 1. 校验必填字段
	switch {
	case in.Email == "":
		return nil, invalidInput("Email is required.")
	case in.Password == "":
		return nil, invalidInput("Password is required.")
	case in.Name == "":
		return nil, invalidInput("Name is required.")
	case in.Surname == "":
		return nil, invalidInput("Surname is required.")
	}

	// 2. 检查邮箱是否已被使用
	available, err := s.IsEmailAvailable(in.Email)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, invalidInput(fmt.Sprintf("Email %s in use", in.Email))
	}

	// 3. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	// 4. 同一事务内写入用户与资料
	user := &model.User{Email: in.Email, Password: hashedPassword}
	profile := &model.UserProfile{Name: in.Name, Surname: in.Surname}
	if err := s.userRepo.CreateWithProfile(user, profile); err != nil {
		log.Errorf("[AuthService] 创建用户失败, email: %s, error: %v", in.Email, err)
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	log.Infof("[AuthService] 用户注册成功, userID: %d", user.ID)
	return user, nil
}

// Login 处理用户登录的业务逻辑。
func (s *authService) Login(email, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (string, string, error) {
	return s.jwtManager.GenerateTokenPair(user.ID, user.Email, "")
}

// Logout 吊销 token 及其所属会话，会话记录保留到 refresh token 过期为止。
func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.tokenRepo.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return err
	}
	if claims.SessionID == "" {
		return nil
	}
	return s.tokenRepo.Blacklist(ctx, sessionKey(claims.SessionID), s.jwtManager.RefreshTokenDuration())
}

// RefreshToken 验证 refresh token 并在同一会话内签发新的 token 对，旧 refresh token 随即作废。
func (s *authService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	// 1. 验证 refresh token 是否有效且未被吊销
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	revoked, err := s.IsTokenRevoked(ctx, claims)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", ErrInvalidToken
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", ErrUserNotFound
	}

	// 3. 作废旧 refresh token 并签发新的 token 对
	if err := s.tokenRepo.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return "", "", err
	}
	return s.jwtManager.GenerateTokenPair(user.ID, user.Email, claims.SessionID)
}

// GetProfile 根据用户 ID 获取用户及其资料。
func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) IsEmailAvailable(email string) (bool, error) {
	_, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// SendVerification 生成验证 token；邮件投递不在本服务范围内，token 写入日志并返回。
func (s *authService) SendVerification(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalidInput("Email is required.")
	}
	available, err := s.IsEmailAvailable(email)
	if err != nil {
		return "", err
	}
	if !available {
		return "", invalidInput(fmt.Sprintf("Email %s in use", email))
	}
	tok, err := s.jwtManager.GenerateVerificationToken(email)
	if err != nil {
		return "", err
	}
	log.Infow("[AuthService] 已生成邮箱验证 token", "email", email, "token", tok)
	return tok, nil
}

func (s *authService) VerifyEmail(tokenString string) (string, error) {
	email, err := s.jwtManager.VerifyVerificationToken(tokenString)
	if err != nil {
		log.Warnf("[AuthService] 邮箱验证 token 无效: %v", err)
		return "", ErrInvalidToken
	}
	return email, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *authService) IsTokenRevoked(ctx context.Context, claims *token.CustomClaims) (bool, error) {
	if claims.ID != "" {
		revoked, err := s.tokenRepo.IsBlacklisted(ctx, claims.ID)
		if err != nil || revoked {
			return revoked, err
		}
	}
	if claims.SessionID == "" {
		return false, nil
	}
	return s.tokenRepo.IsBlacklisted(ctx, sessionKey(claims.SessionID))
}
