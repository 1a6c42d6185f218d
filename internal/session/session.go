package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ============================================================================
// 会话管理
// ============================================================================
//
// API 层用不透明 token（Cookie）换出 userID，核心业务只认 userID，
// 永远不接触凭证。token 是 uuid v4，服务端单方面可注销。
//
// 两个实现：
//   - MemoryManager: 进程内 map + 过期时间，配 memory 驱动
//   - RedisManager:  Redis SET EX，配 mysql 驱动（重启不掉线，多实例共享）
//
// ============================================================================

// CookieName 会话 Cookie 名
const CookieName = "coin_session"

var ErrSessionNotFound = errors.New("会话不存在或已过期")

// Manager 会话管理器
type Manager interface {
	// Create 为用户新建会话，返回不透明 token
	Create(ctx context.Context, userID int64) (string, error)
	// Resolve 用 token 换出 userID，无效或过期返回 ErrSessionNotFound
	Resolve(ctx context.Context, token string) (int64, error)
	// Destroy 注销会话，token 无效时静默成功
	Destroy(ctx context.Context, token string) error
}

func newToken() string {
	return uuid.NewString()
}
