package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

// MemoryStore 内存实现，用于无数据库的开发模式和测试。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewMemoryStore 创建空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session chat.Session) (chat.Session, error) {
	if session.CharacterID == "" {
		return chat.Session{}, fault.New(fault.Validation, "缺少角色ID")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.LastMessageAt = now
	if session.Status == "" {
		session.Status = chat.SessionActive
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.Status == chat.SessionDeleted {
		return chat.Session{}, fault.New(fault.NotFound, "会话不存在")
	}
	return session, nil
}

func (s *MemoryStore) ListUserSessions(_ context.Context, userID string) ([]chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []chat.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.Status != chat.SessionDeleted {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageAt.After(sessions[j].LastMessageAt)
	})
	return sessions, nil
}

func (s *MemoryStore) UpdateSessionScene(_ context.Context, sessionID, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fault.New(fault.NotFound, "会话不存在")
	}
	session.SceneID = sceneID
	session.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = session
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, fault.New(fault.Validation, "缺少会话ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[message.SessionID]
	if !ok {
		return chat.Message{}, fault.New(fault.NotFound, "会话不存在")
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.Type == "" {
		message.Type = chat.TypeText
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)

	session.MessageCount++
	session.LastMessageAt = message.CreatedAt
	session.UpdatedAt = message.CreatedAt
	s.sessions[message.SessionID] = session

	return message, nil
}

func (s *MemoryStore) GetRecentMessages(_ context.Context, sessionID string, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, fault.New(fault.NotFound, "会话不存在")
	}

	start := 0
	if limit > 0 && len(messages) > limit {
		start = len(messages) - limit
	}
	copied := make([]chat.Message, len(messages)-start)
	copy(copied, messages[start:])
	return copied, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string, limit, offset int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, fault.New(fault.NotFound, "会话不存在")
	}

	if offset >= len(messages) {
		return []chat.Message{}, nil
	}
	end := len(messages)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	copied := make([]chat.Message, end-offset)
	copy(copied, messages[offset:end])
	return copied, nil
}
