package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chenweiyi/roleverse/backend/internal/config"
	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/user"
)

// Service 签发与校验访问令牌，密码用 bcrypt 校验。
type Service struct {
	store       Store
	secret      []byte
	tokenTTL    time.Duration
	rememberTTL time.Duration
}

// Result 注册或登录的结果。
type Result struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// NewService 创建认证服务。
func NewService(store Store, cfg config.AuthConfig) *Service {
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	rememberTTL := cfg.RememberTTL
	if rememberTTL <= 0 {
		rememberTTL = 30 * 24 * time.Hour
	}
	return &Service{
		store:       store,
		secret:      []byte(cfg.JWTSecret),
		tokenTTL:    tokenTTL,
		rememberTTL: rememberTTL,
	}
}

// Register 创建账号并直接签发令牌。
func (s *Service) Register(ctx context.Context, username, email, password string) (Result, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)

	if username == "" || password == "" {
		return Result{}, fault.New(fault.Validation, "用户名和密码不能为空")
	}
	if len(password) < 6 {
		return Result{}, fault.New(fault.Validation, "密码长度至少6位")
	}

	if _, exists, err := s.store.GetUserByUsername(ctx, username); err != nil {
		return Result{}, err
	} else if exists {
		return Result{}, fault.New(fault.Validation, "用户名已存在")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password failed: %w", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return Result{}, err
	}

	token, err := s.issueToken(ctx, created.ID, false)
	if err != nil {
		return Result{}, err
	}
	return Result{Token: token, User: created}, nil
}

// Login 校验密码并签发令牌。remember 为真时令牌有效期延长到 30 天。
func (s *Service) Login(ctx context.Context, username, password string, remember bool) (Result, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Result{}, fault.New(fault.Validation, "用户名和密码不能为空")
	}

	u, exists, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return Result{}, fault.New(fault.Validation, "用户名或密码错误")
	}
	if u.Status == user.StatusBanned {
		return Result{}, fault.New(fault.Permanent, "账号已被封禁")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Result{}, fault.New(fault.Validation, "用户名或密码错误")
	}

	token, err := s.issueToken(ctx, u.ID, remember)
	if err != nil {
		return Result{}, err
	}
	return Result{Token: token, User: u}, nil
}

// Logout 将令牌标记为无效。
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.InvalidateToken(ctx, token)
}

// Me 返回令牌对应的用户。
func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// Authenticate 校验令牌签名与数据库状态，返回用户ID。
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fault.New(fault.Validation, "缺少访问令牌")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fault.Wrap(fault.Validation, "无效的访问令牌", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fault.New(fault.Validation, "无效的令牌载荷")
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", fault.New(fault.Validation, "无效的令牌载荷")
	}

	record, exists, err := s.store.GetToken(ctx, token)
	if err != nil {
		return "", err
	}
	if !exists || !record.IsValid || time.Now().After(record.ExpiresAt) {
		return "", fault.New(fault.Validation, "令牌已失效")
	}

	return userID, nil
}

func (s *Service) issueToken(ctx context.Context, userID string, remember bool) (string, error) {
	ttl := s.tokenTTL
	if remember {
		ttl = s.rememberTTL
	}
	expiresAt := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    expiresAt.Unix(),
		"iat":    time.Now().Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}

	if err := s.store.SaveToken(ctx, user.Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     signed,
		ExpiresAt: expiresAt,
		IsValid:   true,
	}); err != nil {
		return "", err
	}
	return signed, nil
}
