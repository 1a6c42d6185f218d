package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// Redis 分布式锁
// ============================================================================
//
// 加锁：SET key value NX EX timeout
//   - NX: key 不存在才设置（保证互斥）
//   - EX: 过期时间（持锁进程崩溃时锁自动释放，防死锁）
//   - value: 锁持有者标识，释放时校验，防止误删别人的锁
//
// 释放：Lua 脚本里"校验 value + 删除"一次完成，避免校验和删除之间被抢锁
//
// ============================================================================

const (
	lockExpiration = 30 * time.Second
	retryInterval  = 100 * time.Millisecond
	maxRetries     = 30
)

// RedisLocker 基于 Redis SETNX 的 UserLocker 实现
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) LockUser(ctx context.Context, userID int64) (UnlockFunc, error) {
	key := fmt.Sprintf("ledger:lock:user:%d", userID)
	value := uuid.NewString()

	for i := 0; i < maxRetries; i++ {
		success, err := l.client.SetNX(ctx, key, value, lockExpiration).Result()
		if err != nil {
			return nil, err
		}
		if success {
			return func(ctx context.Context) error {
				return l.unlock(ctx, key, value)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}

	return nil, ErrLockFailed
}

func (l *RedisLocker) unlock(ctx context.Context, key, value string) error {
	// 场景：A 持锁超时自动过期 -> B 加锁成功 -> A 执行完调用 unlock
	// 不校验 value 的话，A 会把 B 的锁删掉
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{key}, value).Result()
	return err
}
