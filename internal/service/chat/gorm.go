package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

// GormStore MySQL 实现。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建数据库存储。
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateSession(ctx context.Context, session chat.Session) (chat.Session, error) {
	if session.CharacterID == "" {
		return chat.Session{}, fault.New(fault.Validation, "缺少角色ID")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = chat.SessionActive
	}
	session.LastMessageAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return chat.Session{}, fault.Wrap(fault.Persistence, "创建会话失败", err)
	}
	return session, nil
}

func (s *GormStore) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	var session chat.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND status <> ?", sessionID, chat.SessionDeleted).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat.Session{}, fault.New(fault.NotFound, "会话不存在")
	}
	if err != nil {
		return chat.Session{}, fault.Wrap(fault.Persistence, "查询会话失败", err)
	}
	return session, nil
}

func (s *GormStore) ListUserSessions(ctx context.Context, userID string) ([]chat.Session, error) {
	var sessions []chat.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, chat.SessionDeleted).
		Order("last_message_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "查询会话列表失败", err)
	}
	return sessions, nil
}

func (s *GormStore) UpdateSessionScene(ctx context.Context, sessionID, sceneID string) error {
	result := s.db.WithContext(ctx).
		Model(&chat.Session{}).
		Where("id = ?", sessionID).
		Update("scene_id", sceneID)
	if result.Error != nil {
		return fault.Wrap(fault.Persistence, "更新会话场景失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.New(fault.NotFound, "会话不存在")
	}
	return nil
}

// AppendMessage 在一个事务里插入消息并推进会话计数。
func (s *GormStore) AppendMessage(ctx context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, fault.New(fault.Validation, "缺少会话ID")
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

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&chat.Session{}).
			Where("id = ? AND status <> ?", message.SessionID, chat.SessionDeleted).
			Updates(map[string]any{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": message.CreatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&message).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat.Message{}, fault.New(fault.NotFound, "会话不存在")
	}
	if err != nil {
		return chat.Message{}, fault.Wrap(fault.Persistence, "保存消息失败", err)
	}
	return message, nil
}

func (s *GormStore) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 4
	}

	// 先倒序取最近 N 条，再翻回时间正序。
	var recent []chat.Message
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recent).Error
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "查询历史消息失败", err)
	}

	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *GormStore) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]chat.Message, error) {
	query := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []chat.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, fault.Wrap(fault.Persistence, "查询消息列表失败", err)
	}
	return messages, nil
}
