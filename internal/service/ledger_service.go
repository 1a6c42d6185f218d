package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"coinrewards/internal/config"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/model"
	"coinrewards/internal/repository"
	"coinrewards/pkg/idgen"
)

// ============================================================================
// 记账核心
// ============================================================================
//
// 余额的唯一合法变更入口。任何加币 / 扣币都走 ApplyDelta：
//
//   1. 按用户加锁（同一用户的变更串行，不同用户并发）
//   2. 校验参数和余额（扣币不允许透支）
//   3. 一个原子单元内：CAS 改余额 + 追加流水 + 写事件消息
//
// 核心不变量：任意时刻 用户余额 == 该用户所有流水金额之和。
// 失败时不留半截状态：没有孤儿流水，余额不漂移。
//
// ============================================================================

const defaultLedgerTopic = "coin_ledger_event"

// LedgerService 记账服务
type LedgerService struct {
	store  repository.Store
	locker lock.UserLocker
	cfg    *config.Config
}

func NewLedgerService(store repository.Store, locker lock.UserLocker, cfg *config.Config) *LedgerService {
	return &LedgerService{
		store:  store,
		locker: locker,
		cfg:    cfg,
	}
}

// ApplyDelta 对用户余额施加一笔有符号变更并记录流水
// amount 正数入账（earn）、负数出账（withdraw），不允许为 0
func (s *LedgerService) ApplyDelta(ctx context.Context, userID int64, amount int64, txType, description string) (*model.User, *model.CoinTransaction, error) {
	if amount == 0 {
		return nil, nil, ErrInvalidAmount
	}
	if !model.ValidTransactionType(txType) {
		return nil, nil, ErrInvalidTransactionType
	}
	if description == "" {
		return nil, nil, ErrEmptyDescription
	}

	unlock, err := s.locker.LockUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("获取用户锁失败: %w", err)
	}
	defer unlock(ctx)

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	// 扣币前置条件：变更后余额不为负。
	// 这里先判一次快速失败，CAS 条件是兜底（持锁期间余额不会被别人改）。
	if amount < 0 && user.Balance+amount < 0 {
		return nil, nil, repository.ErrBalanceNotEnough
	}

	trans := &model.CoinTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		Amount:        amount,
		Type:          txType,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance + amount,
		Description:   description,
		CreatedAt:     time.Now(),
	}

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		if err := tx.Users().ApplyBalanceDelta(ctx, userID, amount, user.Version); err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}
		return s.appendLedgerEvent(ctx, tx, trans)
	})
	if err != nil {
		return nil, nil, err
	}

	user.Balance = trans.BalanceAfter
	user.Version++

	log.Printf("[Ledger] 记账成功: transactionNo=%s, userID=%d, amount=%d, balance=%d",
		trans.TransactionNo, userID, amount, user.Balance)

	return user, trans, nil
}

// appendLedgerEvent 把流水事件写进本地消息表，和流水同事务
func (s *LedgerService) appendLedgerEvent(ctx context.Context, tx repository.Store, trans *model.CoinTransaction) error {
	topic := s.cfg.Kafka.Topic.LedgerEvent
	if topic == "" {
		topic = defaultLedgerTopic
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"transaction_no": trans.TransactionNo,
		"user_id":        trans.UserID,
		"amount":         trans.Amount,
		"type":           trans.Type,
		"balance_after":  trans.BalanceAfter,
		"created_at":     trans.CreatedAt.Format(time.RFC3339),
	})

	msg := &model.OutboxMessage{
		MessageKey: trans.TransactionNo,
		Topic:      topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := tx.Outbox().Create(ctx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

// Withdraw 提现：扣掉 amount 个金币并记一笔 withdraw 流水
// amount 必须为正；配置了最小提现额度时低于额度直接拒绝
func (s *LedgerService) Withdraw(ctx context.Context, userID int64, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if min := s.cfg.Business.MinWithdrawCoins; min > 0 && amount < min {
		return nil, ErrBelowMinWithdraw
	}

	description := fmt.Sprintf("Withdrew %d coins", amount)
	user, _, err := s.ApplyDelta(ctx, userID, -amount, model.TransactionTypeWithdraw, description)
	return user, err
}

// GetBalance 查询余额
func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// GetLedger 按时间倒序分页返回流水
func (s *LedgerService) GetLedger(ctx context.Context, userID int64, page, pageSize int) ([]*model.CoinTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return s.store.Transactions().ListByUserID(ctx, userID, page, pageSize)
}

// VerifyBalance 对账：校验某用户余额是否等于流水之和
// 返回 (余额, 流水和, 是否一致)
func (s *LedgerService) VerifyBalance(ctx context.Context, userID int64) (int64, int64, bool, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return 0, 0, false, err
	}
	sum, err := s.store.Transactions().SumAmountByUserID(ctx, userID)
	if err != nil {
		return 0, 0, false, err
	}
	return user.Balance, sum, user.Balance == sum, nil
}
