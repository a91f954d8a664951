package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tandyr-pos/internal/dialogue"

	"github.com/redis/go-redis/v9"
)

// Redis keeps sessions in an external store so drafts survive a process
// restart; expiry is delegated to key TTLs.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("pos:session:%d", chatID)
}

func (r *Redis) Get(ctx context.Context, chatID int64) (*dialogue.Session, bool, error) {
	raw, err := r.client.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}

	s := &dialogue.Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, false, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, true, nil
}

func (r *Redis) Put(ctx context.Context, s *dialogue.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(s.ChatID), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, chatID int64) error {
	return r.client.Del(ctx, sessionKey(chatID)).Err()
}
