package memory

import (
	"context"
	"sort"
	"sync"

	"coinrewards/internal/model"
	"coinrewards/internal/repository"
)

// ============================================================================
// 内存存储实现
// ============================================================================
//
// 进程生命周期内有效，重启即清空。默认的存储驱动，也是测试用的驱动。
//
// 【并发模型】
// 所有表共用一把互斥锁。单个仓储方法自己加锁；Transact 先整体加锁，
// 再把"免锁视图"传给 fn，所以 fn 里的多个写操作天然原子。
//
// 【为什么不做回滚】
// 写操作在内存里不会中途失败（校验都在写之前完成），
// Transact 只需要提供互斥，不需要回滚日志。
//
// ============================================================================

type tables struct {
	users        map[int64]*model.User
	tasks        map[int64]*model.Task
	transactions map[int64]*model.CoinTransaction
	outbox       map[int64]*model.OutboxMessage

	userSeq        int64
	taskSeq        int64
	transactionSeq int64
	outboxSeq      int64
}

// Store 内存版 repository.Store
type Store struct {
	mu   *sync.Mutex
	data *tables
	inTx bool // Transact 内部的视图不再加锁
}

func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &tables{
			users:        make(map[int64]*model.User),
			tasks:        make(map[int64]*model.Task),
			transactions: make(map[int64]*model.CoinTransaction),
			outbox:       make(map[int64]*model.OutboxMessage),
		},
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{s} }
func (s *Store) Tasks() repository.TaskRepository               { return &taskRepo{s} }
func (s *Store) Transactions() repository.TransactionRepository { return &transactionRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository            { return &outboxRepo{s} }

// Transact 全局互斥下执行 fn
func (s *Store) Transact(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Store{mu: s.mu, data: s.data, inTx: true})
}

// ============================================================
// 用户
// ============================================================

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock()()

	for _, u := range r.s.data.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}

	r.s.data.userSeq++
	user.ID = r.s.data.userSeq
	clone := *user
	r.s.data.users[user.ID] = &clone
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	defer r.s.lock()()

	user, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.data.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepo) ListIDs(ctx context.Context) ([]int64, error) {
	defer r.s.lock()()

	ids := make([]int64, 0, len(r.s.data.users))
	for id := range r.s.data.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *userRepo) ApplyBalanceDelta(ctx context.Context, userID int64, delta int64, version int) error {
	defer r.s.lock()()

	user, ok := r.s.data.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if user.Version != version {
		return repository.ErrOptimisticLock
	}
	if user.Balance+delta < 0 {
		return repository.ErrBalanceNotEnough
	}

	user.Balance += delta
	user.Version++
	return nil
}

// ============================================================
// 任务
// ============================================================

type taskRepo struct {
	s *Store
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	defer r.s.lock()()

	r.s.data.taskSeq++
	task.ID = r.s.data.taskSeq
	clone := *task
	r.s.data.tasks[task.ID] = &clone
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	defer r.s.lock()()

	task, ok := r.s.data.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *taskRepo) List(ctx context.Context) ([]*model.Task, error) {
	defer r.s.lock()()

	tasks := make([]*model.Task, 0, len(r.s.data.tasks))
	for _, t := range r.s.data.tasks {
		clone := *t
		tasks = append(tasks, &clone)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *taskRepo) Count(ctx context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len(r.s.data.tasks)), nil
}

// ============================================================
// 金币流水
// ============================================================

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(ctx context.Context, trans *model.CoinTransaction) error {
	defer r.s.lock()()

	r.s.data.transactionSeq++
	trans.ID = r.s.data.transactionSeq
	clone := *trans
	r.s.data.transactions[trans.ID] = &clone
	return nil
}

func (r *transactionRepo) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.CoinTransaction, int64, error) {
	defer r.s.lock()()

	all := make([]*model.CoinTransaction, 0)
	for _, t := range r.s.data.transactions {
		if t.UserID == userID {
			clone := *t
			all = append(all, &clone)
		}
	}
	// ID 单调递增，按 ID 倒序即按时间倒序
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*model.CoinTransaction{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *transactionRepo) SumAmountByUserID(ctx context.Context, userID int64) (int64, error) {
	defer r.s.lock()()

	var sum int64
	for _, t := range r.s.data.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum, nil
}

// ============================================================
// 本地消息表
// ============================================================

type outboxRepo struct {
	s *Store
}

func (r *outboxRepo) Create(ctx context.Context, msg *model.OutboxMessage) error {
	defer r.s.lock()()

	r.s.data.outboxSeq++
	msg.ID = r.s.data.outboxSeq
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	clone := *msg
	r.s.data.outbox[msg.ID] = &clone
	return nil
}

func (r *outboxRepo) GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	defer r.s.lock()()

	pending := make([]*model.OutboxMessage, 0)
	for _, m := range r.s.data.outbox {
		if m.Status == model.OutboxStatusPending {
			clone := *m
			pending = append(pending, &clone)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *outboxRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	defer r.s.lock()()

	msg, ok := r.s.data.outbox[id]
	if !ok {
		return nil
	}
	msg.Status = status
	return nil
}

func (r *outboxRepo) IncrementRetryCount(ctx context.Context, id int64) error {
	defer r.s.lock()()

	msg, ok := r.s.data.outbox[id]
	if !ok {
		return nil
	}
	msg.RetryCount++
	return nil
}

func (r *outboxRepo) MarkAsFailed(ctx context.Context, id int64) error {
	return r.UpdateStatus(ctx, id, model.OutboxStatusFailed)
}
