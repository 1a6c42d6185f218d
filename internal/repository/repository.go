package repository

import (
	"context"
	"errors"

	"coinrewards/internal/model"
)

// ============================================================================
// 存储抽象
// ============================================================================
//
// 所有业务逻辑只依赖这里的接口，不直接触碰具体存储。
// 当前有两个实现：
//   - memory: 进程内存储，默认，零依赖，测试也用它
//   - mysql:  gorm + MySQL，生产环境用
//
// ============================================================================

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailTaken       = errors.New("邮箱已被注册")
	ErrTaskNotFound     = errors.New("任务不存在")
	ErrBalanceNotEnough = errors.New("余额不足")
	ErrOptimisticLock   = errors.New("乐观锁冲突，请重试")
)

// UserRepository 用户存储
type UserRepository interface {
	// Create 创建用户，邮箱重复返回 ErrEmailTaken
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListIDs(ctx context.Context) ([]int64, error)

	// ApplyBalanceDelta 按 CAS 方式变更余额：
	// 只有当版本号匹配且变更后余额 >= 0 时才生效，并递增版本号。
	// 条件不满足时区分返回 ErrBalanceNotEnough / ErrOptimisticLock。
	ApplyBalanceDelta(ctx context.Context, userID int64, delta int64, version int) error
}

// TaskRepository 任务存储
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context) ([]*model.Task, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository 金币流水存储（只追加）
type TransactionRepository interface {
	Create(ctx context.Context, trans *model.CoinTransaction) error
	// ListByUserID 按创建时间倒序分页返回某用户的流水
	ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.CoinTransaction, int64, error)
	// SumAmountByUserID 某用户所有流水金额之和，对账用
	SumAmountByUserID(ctx context.Context, userID int64) (int64, error)
}

// OutboxRepository 本地消息表存储
type OutboxRepository interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

// Store 聚合入口
//
// Transact 把 fn 里的所有写操作放进一个原子单元执行：
// mysql 实现映射为数据库事务，memory 实现映射为全局互斥。
// 记账的"改余额 + 追加流水 + 写消息"必须走 Transact。
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	Transactions() TransactionRepository
	Outbox() OutboxRepository

	Transact(ctx context.Context, fn func(tx Store) error) error
}
