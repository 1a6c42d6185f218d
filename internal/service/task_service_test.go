package service

import (
	"context"
	"testing"

	"coinrewards/internal/config"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/model"
	"coinrewards/internal/repository"
	"coinrewards/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTaskService(t *testing.T) (*TaskService, *LedgerService, repository.Store) {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store, lock.NewMutexLocker(), &config.Config{})
	return NewTaskService(store, ledger), ledger, store
}

func TestSeedDefaultTasks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestTaskService(t)

	require.NoError(t, svc.SeedDefaultTasks(ctx))

	tasks, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	assert.Equal(t, "Daily Check-in", tasks[0].Title)
	assert.Equal(t, int64(50), tasks[0].Reward)
	assert.Equal(t, model.TaskCategoryDaily, tasks[0].Category)

	// 幂等：重复种子不追加
	require.NoError(t, svc.SeedDefaultTasks(ctx))
	tasks, err = svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	svc, ledger, store := newTestTaskService(t)
	require.NoError(t, svc.SeedDefaultTasks(ctx))
	user := createTestUser(t, store, "a@example.com")

	tasks, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	task := tasks[0] // Daily Check-in, 50

	u, completed, err := svc.CompleteTask(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Reward, u.Balance)
	assert.Equal(t, task.ID, completed.ID)

	transactions, _, err := ledger.GetLedger(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, model.TransactionTypeEarn, transactions[0].Type)
	assert.Equal(t, "Completed: Daily Check-in", transactions[0].Description)
	assertInvariant(t, ledger, user.ID)
}

// 同一个任务重复完成会重复加币——这是当前的产品定义，测试把它钉住
func TestCompleteTask_NoDeduplication(t *testing.T) {
	ctx := context.Background()
	svc, ledger, store := newTestTaskService(t)
	require.NoError(t, svc.SeedDefaultTasks(ctx))
	user := createTestUser(t, store, "a@example.com")

	tasks, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	task := tasks[0]

	_, _, err = svc.CompleteTask(ctx, user.ID, task.ID)
	require.NoError(t, err)
	u, _, err := svc.CompleteTask(ctx, user.ID, task.ID)
	require.NoError(t, err)

	assert.Equal(t, 2*task.Reward, u.Balance)

	_, total, err := ledger.GetLedger(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestCompleteTask_TaskNotFound(t *testing.T) {
	ctx := context.Background()
	svc, ledger, store := newTestTaskService(t)
	require.NoError(t, svc.SeedDefaultTasks(ctx))
	user := createTestUser(t, store, "a@example.com")

	_, _, err := svc.CompleteTask(ctx, user.ID, 9999)
	require.ErrorIs(t, err, repository.ErrTaskNotFound)

	// 余额不能动
	balance, err := ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestGetTask(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestTaskService(t)
	require.NoError(t, svc.SeedDefaultTasks(ctx))

	task, err := svc.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Daily Check-in", task.Title)

	_, err = svc.GetTask(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}
