package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"coinrewards/internal/config"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/model"
	"coinrewards/internal/repository"
	"coinrewards/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, cfg *config.Config) (*LedgerService, repository.Store) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	store := memory.NewStore()
	ledger := NewLedgerService(store, lock.NewMutexLocker(), cfg)
	return ledger, store
}

func createTestUser(t *testing.T, store repository.Store, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "x",
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

// assertInvariant 核心不变量：余额 == 流水之和
func assertInvariant(t *testing.T, ledger *LedgerService, userID int64) {
	t.Helper()
	balance, sum, ok, err := ledger.VerifyBalance(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, ok, "余额 %d 和流水之和 %d 不一致", balance, sum)
}

func TestApplyDelta_EarnThenWithdraw(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	// 赚 50
	u, trans, err := ledger.ApplyDelta(ctx, user.ID, 50, model.TransactionTypeEarn, "Completed: Daily Check-in")
	require.NoError(t, err)
	assert.Equal(t, int64(50), u.Balance)
	assert.Equal(t, int64(50), trans.Amount)
	assert.Equal(t, int64(0), trans.BalanceBefore)
	assert.Equal(t, int64(50), trans.BalanceAfter)
	assert.NotEmpty(t, trans.TransactionNo)
	assertInvariant(t, ledger, user.ID)

	// 提 30
	u, trans, err = ledger.ApplyDelta(ctx, user.ID, -30, model.TransactionTypeWithdraw, "Withdrew 30 coins")
	require.NoError(t, err)
	assert.Equal(t, int64(20), u.Balance)
	assert.Equal(t, int64(-30), trans.Amount)
	assertInvariant(t, ledger, user.ID)

	// 再提 30：余额只剩 20，必须整体失败
	_, _, err = ledger.ApplyDelta(ctx, user.ID, -30, model.TransactionTypeWithdraw, "Withdrew 30 coins")
	require.ErrorIs(t, err, repository.ErrBalanceNotEnough)

	// 失败不能留下半截状态
	balance, err := ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	transactions, total, err := ledger.GetLedger(ctx, user.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, transactions, 2)
	// 按时间倒序：最新的在前
	assert.Equal(t, int64(-30), transactions[0].Amount)
	assert.Equal(t, int64(50), transactions[1].Amount)
	assertInvariant(t, ledger, user.ID)
}

func TestApplyDelta_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	tests := []struct {
		name        string
		userID      int64
		amount      int64
		txType      string
		description string
		wantErr     error
	}{
		{"金额为0", user.ID, 0, model.TransactionTypeEarn, "x", ErrInvalidAmount},
		{"类型不合法", user.ID, 10, "bonus", "x", ErrInvalidTransactionType},
		{"描述为空", user.ID, 10, model.TransactionTypeEarn, "", ErrEmptyDescription},
		{"用户不存在", user.ID + 999, 10, model.TransactionTypeEarn, "x", repository.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ledger.ApplyDelta(ctx, tt.userID, tt.amount, tt.txType, tt.description)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// 全部失败，不应产生任何流水
	_, total, err := ledger.GetLedger(ctx, user.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestApplyDelta_ConcurrentCredits(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	// N 个并发入账，一笔都不能丢
	const n = 50
	const amount = int64(10)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.ApplyDelta(ctx, user.ID, amount, model.TransactionTypeEarn, "concurrent earn")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n)*amount, balance)

	_, total, err := ledger.GetLedger(ctx, user.ID, 1, n+1)
	require.NoError(t, err)
	assert.Equal(t, int64(n), total)
	assertInvariant(t, ledger, user.ID)
}

func TestApplyDelta_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	_, _, err := ledger.ApplyDelta(ctx, user.ID, 100, model.TransactionTypeEarn, "seed")
	require.NoError(t, err)

	// 余额 100，10 个并发提现各 30：恰好 3 笔成功
	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.ApplyDelta(ctx, user.ID, -30, model.TransactionTypeWithdraw, "Withdrew 30 coins")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, repository.ErrBalanceNotEnough)
		}
	}
	assert.Equal(t, 3, succeeded)

	balance, err := ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
	assert.GreaterOrEqual(t, balance, int64(0))
	assertInvariant(t, ledger, user.ID)
}

func TestWithdraw_MinimumPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.Business.MinWithdrawCoins = 100
	ledger, store := newTestLedger(t, cfg)
	user := createTestUser(t, store, "a@example.com")

	_, _, err := ledger.ApplyDelta(ctx, user.ID, 500, model.TransactionTypeEarn, "seed")
	require.NoError(t, err)

	// 低于最小额度：拒绝且不动账
	_, err = ledger.Withdraw(ctx, user.ID, 50)
	require.ErrorIs(t, err, ErrBelowMinWithdraw)

	balance, err := ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	// 到达额度：正常扣
	u, err := ledger.Withdraw(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(400), u.Balance)
	assertInvariant(t, ledger, user.ID)
}

func TestWithdraw_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	_, err := ledger.Withdraw(ctx, user.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.Withdraw(ctx, user.ID, -10)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApplyDelta_WritesOutboxEvent(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	_, trans, err := ledger.ApplyDelta(ctx, user.ID, 50, model.TransactionTypeEarn, "Completed: Watch Video Ad")
	require.NoError(t, err)

	// 每笔记账在同一个原子单元里写一条待发送事件
	messages, err := store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, trans.TransactionNo, messages[0].MessageKey)
	assert.Equal(t, defaultLedgerTopic, messages[0].Topic)
	assert.Contains(t, messages[0].Payload, trans.TransactionNo)
	assert.Equal(t, model.OutboxStatusPending, messages[0].Status)
}

func TestGetLedger_Pagination(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t, nil)
	user := createTestUser(t, store, "a@example.com")

	for i := 1; i <= 5; i++ {
		_, _, err := ledger.ApplyDelta(ctx, user.ID, int64(i), model.TransactionTypeEarn, fmt.Sprintf("earn %d", i))
		require.NoError(t, err)
	}

	page1, total, err := ledger.GetLedger(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)
	assert.Equal(t, int64(5), page1[0].Amount) // 最新的在前

	page3, _, err := ledger.GetLedger(ctx, user.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, int64(1), page3[0].Amount)
}

func TestGetBalance_UnknownUser(t *testing.T) {
	ledger, _ := newTestLedger(t, nil)

	_, err := ledger.GetBalance(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
