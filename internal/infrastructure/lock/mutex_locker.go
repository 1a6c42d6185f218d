package lock

import (
	"context"
	"sync"
)

// MutexLocker 进程内按用户分段的互斥锁
// 每个用户一把 sync.Mutex，惰性创建，从不回收（用户量级有限，可接受）
type MutexLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *MutexLocker) userMutex(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}

func (l *MutexLocker) LockUser(ctx context.Context, userID int64) (UnlockFunc, error) {
	m := l.userMutex(userID)
	m.Lock()
	return func(ctx context.Context) error {
		m.Unlock()
		return nil
	}, nil
}
