package model

import (
	"time"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeEarn     = "earn"     // 做任务赚金币（入账）
	TransactionTypeWithdraw = "withdraw" // 提现（出账）
)

// ValidTransactionType 校验交易类型是否合法
func ValidTransactionType(t string) bool {
	return t == TransactionTypeEarn || t == TransactionTypeWithdraw
}

// ============================================================================
// 金币流水实体
// ============================================================================

// CoinTransaction 金币流水表
// 记录余额的每一笔变动，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 记录交易前后余额 —— 便于校验余额一致性
// 3. 任意时刻：用户余额 == 该用户所有流水 Amount 之和
type CoinTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	UserID        int64     `gorm:"index;not null" json:"user_id"`                               // 用户ID
	Amount        int64     `gorm:"not null" json:"amount"`                                      // 金额（正数入账，负数出账）
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`                       // 交易类型
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`                              // 交易前余额
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                               // 交易后余额
	Description   string    `gorm:"type:varchar(256);not null" json:"description"`               // 流水描述
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CoinTransaction) TableName() string {
	return "coin_transaction"
}
