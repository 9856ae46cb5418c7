package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

const DefaultHistoryWindow = 20

// RedisHistoryStore keeps each user's conversation window as a capped Redis
// list that expires after ttl of inactivity.
type RedisHistoryStore struct {
	client *RedisClient
	ttl    time.Duration
	window int64
}

var _ types.HistoryStore = (*RedisHistoryStore)(nil)

func NewRedisHistoryStore(redisClient *RedisClient, ttlHours int, window int) *RedisHistoryStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	return &RedisHistoryStore{
		client: redisClient,
		ttl:    ttl,
		window: int64(window),
	}
}

func (s *RedisHistoryStore) key(userID int64) string {
	return s.client.generateKey("history", fmt.Sprintf("%d", userID))
}

func (s *RedisHistoryStore) Append(ctx context.Context, userID int64, msgs ...types.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		values = append(values, m)
	}
	return s.client.PushTrim(ctx, s.key(userID), s.window, s.ttl, values...)
}

func (s *RedisHistoryStore) History(ctx context.Context, userID int64) ([]types.ChatMessage, error) {
	raw, err := s.client.Range(ctx, s.key(userID))
	if err != nil {
		return nil, err
	}
	out := make([]types.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m types.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisHistoryStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.key(userID))
}
