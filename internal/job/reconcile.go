package job

import (
	"context"
	"log"
	"time"

	"coinrewards/internal/repository"
)

// ReconcileJob 定时对账任务
// 逐个用户校验 余额 == 流水金额之和。记账路径是对的就永远不会报，
// 报了说明有代码绕过 Ledger 改了余额，只告警不自动修
type ReconcileJob struct {
	store    repository.Store
	stopCh   chan struct{}
	interval time.Duration
}

func NewReconcileJob(store repository.Store) *ReconcileJob {
	return &ReconcileJob{
		store:    store,
		stopCh:   make(chan struct{}),
		interval: time.Minute,
	}
}

func (j *ReconcileJob) Start(ctx context.Context) {
	log.Println("[ReconcileJob] 对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReconcileJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[ReconcileJob] 任务停止")
			return
		case <-ticker.C:
			j.reconcileAll(ctx)
		}
	}
}

func (j *ReconcileJob) Stop() {
	close(j.stopCh)
}

func (j *ReconcileJob) reconcileAll(ctx context.Context) {
	ids, err := j.store.Users().ListIDs(ctx)
	if err != nil {
		log.Printf("[ReconcileJob] 查询用户列表失败: %v", err)
		return
	}

	for _, userID := range ids {
		// 读余额和汇总流水放进同一个原子单元，避免和在途记账打架产生误报
		err := j.store.Transact(ctx, func(tx repository.Store) error {
			user, err := tx.Users().GetByID(ctx, userID)
			if err != nil {
				return err
			}
			sum, err := tx.Transactions().SumAmountByUserID(ctx, userID)
			if err != nil {
				return err
			}
			if user.Balance != sum {
				log.Printf("[ReconcileJob] 对账不一致: userID=%d, balance=%d, ledgerSum=%d",
					userID, user.Balance, sum)
			}
			return nil
		})
		if err != nil {
			log.Printf("[ReconcileJob] 对账失败: userID=%d, err=%v", userID, err)
		}
	}
}
