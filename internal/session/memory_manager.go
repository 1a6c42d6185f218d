package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryManager 进程内会话存储，过期条目在读取时惰性清理
type MemoryManager struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
}

func NewMemoryManager(ttl time.Duration) *MemoryManager {
	return &MemoryManager{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
	}
}

func (m *MemoryManager) Create(ctx context.Context, userID int64) (string, error) {
	token := newToken()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memoryEntry{
		userID:    userID,
		expiresAt: time.Now().Add(m.ttl),
	}
	return token, nil
}

func (m *MemoryManager) Resolve(ctx context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	if !ok {
		return 0, ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.sessions, token)
		return 0, ErrSessionNotFound
	}
	return entry.userID, nil
}

func (m *MemoryManager) Destroy(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
