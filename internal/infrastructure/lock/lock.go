package lock

import (
	"context"
	"errors"
)

// ============================================================================
// 按用户维度的互斥
// ============================================================================
//
// 记账操作（ApplyDelta）对同一个用户必须串行，否则就是经典的
// "读余额 -> 算新值 -> 写回" 丢失更新：
//
//   goroutine1: 读余额=100 -> 扣30 -> 写回70
//   goroutine2: 读余额=100 -> 扣30 -> 写回70   少扣了一笔！
//
// 按用户加锁后，不同用户互不影响，同一用户的变更排队执行。
// 存储层的乐观锁版本号是第二道防线。
//
// 两个实现：
//   - MutexLocker: 进程内 sync.Mutex，配 memory 驱动
//   - RedisLocker: Redis SETNX 分布式锁，配 mysql 驱动（多实例部署时也成立）
//
// ============================================================================

var ErrLockFailed = errors.New("获取用户锁失败")

// UnlockFunc 释放锁。必须在持锁操作结束后调用。
type UnlockFunc func(ctx context.Context) error

// UserLocker 按用户ID加锁
type UserLocker interface {
	LockUser(ctx context.Context, userID int64) (UnlockFunc, error)
}
