package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/chenweiyi/roleverse/backend/internal/model/chat"
)

// CachedStore 在底层存储外加一层 Redis 读穿缓存。
// 只缓存 GetRecentMessages 的结果，写入时失效对应键；
// 缓存故障一律降级为直接查库，不影响正确性。
type CachedStore struct {
	Store
	client *redisv9.Client
	ttl    time.Duration
}

// NewCachedStore 包装底层存储。client 为 nil 时原样返回底层存储。
func NewCachedStore(inner Store, client *redisv9.Client, ttl time.Duration) Store {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStore{Store: inner, client: client, ttl: ttl}
}

func (s *CachedStore) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	key := s.historyKey(sessionID, limit)

	raw, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var cached []chat.Message
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		// 缓存损坏，删掉走库。
		s.client.Del(ctx, key)
	} else if err != redisv9.Nil {
		log.Printf("[cache] 读取历史缓存失败: %v", err)
	}

	messages, err := s.Store.GetRecentMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(messages); jsonErr == nil {
		if setErr := s.client.Set(ctx, key, payload, s.ttl).Err(); setErr != nil {
			log.Printf("[cache] 写入历史缓存失败: %v", setErr)
		}
	}
	return messages, nil
}

func (s *CachedStore) AppendMessage(ctx context.Context, message chat.Message) (chat.Message, error) {
	saved, err := s.Store.AppendMessage(ctx, message)
	if err != nil {
		return chat.Message{}, err
	}
	s.invalidate(ctx, saved.SessionID)
	return saved, nil
}

func (s *CachedStore) invalidate(ctx context.Context, sessionID string) {
	pattern := fmt.Sprintf("chat:history:%s:*", sessionID)
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("[cache] 查找失效键失败: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] 失效历史缓存失败: %v", err)
	}
}

func (s *CachedStore) historyKey(sessionID string, limit int) string {
	return fmt.Sprintf("chat:history:%s:%d", sessionID, limit)
}
