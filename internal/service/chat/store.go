// Package chat 管理会话与消息的持久化。
package chat

import (
	"context"

	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

// Store 抽象会话与消息存储。
// AppendMessage 除插入消息外还要推进会话的消息计数与最后活跃时间。
type Store interface {
	CreateSession(ctx context.Context, session chat.Session) (chat.Session, error)
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]chat.Session, error)
	UpdateSessionScene(ctx context.Context, sessionID, sceneID string) error

	AppendMessage(ctx context.Context, message chat.Message) (chat.Message, error)
	// GetRecentMessages 返回时间正序的最近 limit 条消息。
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]chat.Message, error)
}
