package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/dto"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/internal/repository"
	pkgerrors "proyecto-fct/backend/pkg/errors"
	"proyecto-fct/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidToken       = errors.New("Token 无效或已过期")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将 jti 加入黑名单直到 Token 自然过期
	Logout(ctx context.Context, jti string, ttl time.Duration) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Register 公开注册只能创建学生账号
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if req.Role != "" && req.Role != model.RoleStudent {
		return nil, pkgerrors.Forbidden("公开注册只能创建学生账号")
	}

	email := strings.ToLower(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, pkgerrors.Conflict("邮箱 %s 已被注册", email)
	} else if !isNotFound(err) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	nre := emptyToNil(req.NRE)
	if nre != nil {
		if _, err := s.repo.User.GetByNRE(ctx, *nre); err == nil {
			return nil, pkgerrors.Conflict("NRE %s 已被注册", *nre)
		} else if !isNotFound(err) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: string(hash),
		NRE:          nre,
		Phone:        req.Phone,
		Role:         model.RoleStudent,
		Status:       model.UserStatusActive,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("注册用户失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("新用户注册", zap.String("id", user.UserID))
	return s.issueTokens(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, pkgerrors.Forbidden("账号已停用")
	}

	// 3. 生成 Token 对
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("查询 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, pkgerrors.Forbidden("账号已停用")
	}

	// 旧 Refresh Token 轮换后立即作废
	if s.blacklist != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			s.logger.Warn("作废旧 RefreshToken 失败", zap.Error(err))
		}
	}
	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, jti string, ttl time.Duration) error {
	if s.blacklist == nil || jti == "" || ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.NotFound("用户不存在")
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         ToUserResponse(user),
	}, nil
}
