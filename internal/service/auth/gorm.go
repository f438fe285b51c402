package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/user"
)

// GormStore MySQL 实现。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建数据库用户存储。
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.Status == "" {
		u.Status = user.StatusActive
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate") {
			return user.User{}, fault.New(fault.Validation, "用户名或邮箱已存在")
		}
		return user.User{}, fault.Wrap(fault.Persistence, "创建用户失败", err)
	}
	return u, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.User{}, fault.New(fault.NotFound, "用户不存在")
	}
	if err != nil {
		return user.User{}, fault.Wrap(fault.Persistence, "查询用户失败", err)
	}
	return u, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (user.User, bool, error) {
	var u user.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, fault.Wrap(fault.Persistence, "查询用户失败", err)
	}
	return u, true, nil
}

func (s *GormStore) SaveToken(ctx context.Context, t user.Token) error {
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return fault.Wrap(fault.Persistence, "保存令牌失败", err)
	}
	return nil
}

func (s *GormStore) GetToken(ctx context.Context, token string) (user.Token, bool, error) {
	var t user.Token
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.Token{}, false, nil
	}
	if err != nil {
		return user.Token{}, false, fault.Wrap(fault.Persistence, "查询令牌失败", err)
	}
	return t, true, nil
}

func (s *GormStore) InvalidateToken(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).
		Model(&user.Token{}).
		Where("token = ?", token).
		Updates(map[string]any{"is_valid": false}).Error
	if err != nil {
		return fault.Wrap(fault.Persistence, "注销令牌失败", err)
	}
	return nil
}

// PurgeExpiredTokens 删除已过期的令牌记录。
func (s *GormStore) PurgeExpiredTokens(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&user.Token{}).Error
	if err != nil {
		return fault.Wrap(fault.Persistence, "清理过期令牌失败", err)
	}
	return nil
}
