// Package auth 负责账号注册、登录与令牌校验。
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/user"
)

// Store 抽象用户与令牌存储。
type Store interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByID(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, bool, error)

	SaveToken(ctx context.Context, t user.Token) error
	GetToken(ctx context.Context, token string) (user.Token, bool, error)
	InvalidateToken(ctx context.Context, token string) error
}

// MemoryStore 内存实现，开发模式与测试用。
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]user.User
	byName map[string]string
	tokens map[string]user.Token
}

// NewMemoryStore 创建空的内存用户存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]user.User),
		byName: make(map[string]string),
		tokens: make(map[string]user.Token),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, exists := s.byName[key]; exists {
		return user.User{}, fault.New(fault.Validation, "用户名已存在")
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = user.StatusActive
	}
	s.users[u.ID] = u
	s.byName[key] = u.ID
	return u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return user.User{}, fault.New(fault.NotFound, "用户不存在")
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return user.User{}, false, nil
	}
	return s.users[id], true, nil
}

func (s *MemoryStore) SaveToken(_ context.Context, t user.Token) error {
	s.mu.Lock()
	s.tokens[t.Token] = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetToken(_ context.Context, token string) (user.Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	return t, ok, nil
}

func (s *MemoryStore) InvalidateToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil
	}
	t.IsValid = false
	s.tokens[token] = t
	return nil
}
