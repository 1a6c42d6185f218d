package mysql

import (
	"context"

	"coinrewards/internal/repository"

	"gorm.io/gorm"
)

// Store gorm 版 repository.Store
// Transact 映射为数据库事务：事务内拿到的是绑定 tx 的新 Store
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{db: s.db} }
func (s *Store) Tasks() repository.TaskRepository               { return &taskRepo{db: s.db} }
func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepo{db: s.db} }
func (s *Store) Outbox() repository.OutboxRepository            { return &outboxRepo{db: s.db} }

func (s *Store) Transact(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
