package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisManager Redis 会话存储，TTL 由 Redis 过期机制维护
type RedisManager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisManager(client *redis.Client, ttl time.Duration) *RedisManager {
	return &RedisManager{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (m *RedisManager) Create(ctx context.Context, userID int64) (string, error) {
	token := newToken()
	err := m.client.Set(ctx, sessionKey(token), userID, m.ttl).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

func (m *RedisManager) Resolve(ctx context.Context, token string) (int64, error) {
	val, err := m.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrSessionNotFound
	}
	return userID, nil
}

func (m *RedisManager) Destroy(ctx context.Context, token string) error {
	return m.client.Del(ctx, sessionKey(token)).Err()
}
