package service

import (
	"context"
	"fmt"
	"log"

	"coinrewards/internal/model"
	"coinrewards/internal/repository"
)

// TaskService 任务目录 + 任务完成
// 任务列表对记账核心只读；完成任务时通过 LedgerService 加币
type TaskService struct {
	store  repository.Store
	ledger *LedgerService
}

func NewTaskService(store repository.Store, ledger *LedgerService) *TaskService {
	return &TaskService{
		store:  store,
		ledger: ledger,
	}
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	return s.store.Tasks().GetByID(ctx, id)
}

// CompleteTask 完成任务并发放奖励，返回更新后的用户和任务
//
// 【注意】没有"已完成"去重：同一个任务重复完成会重复加币。
// 这是产品当前的定义（任务可刷），不是遗漏；要做每日/一次性限制时
// 在这里按 Category 扩展。
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID int64) (*model.User, *model.Task, error) {
	task, err := s.store.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	description := fmt.Sprintf("Completed: %s", task.Title)
	user, _, err := s.ledger.ApplyDelta(ctx, userID, task.Reward, model.TransactionTypeEarn, description)
	if err != nil {
		return nil, nil, err
	}

	return user, task, nil
}

// SeedDefaultTasks 任务表为空时写入默认任务目录，幂等
func (s *TaskService) SeedDefaultTasks(ctx context.Context) error {
	count, err := s.store.Tasks().Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []*model.Task{
		{Title: "Daily Check-in", Description: "Login daily to claim your reward", Reward: 50, Category: model.TaskCategoryDaily, Icon: "calendar"},
		{Title: "Watch Video Ad", Description: "Watch a short video to earn coins", Reward: 20, Category: model.TaskCategoryAd, Icon: "video"},
		{Title: "Complete Survey", Description: "Take a 5-minute survey about tech", Reward: 150, Category: model.TaskCategorySurvey, Icon: "clipboard"},
		{Title: "Install 'GameZone'", Description: "Download and play for 2 minutes", Reward: 300, Category: model.TaskCategoryApp, Icon: "gamepad"},
		{Title: "Invite Friend", Description: "Get coins when your friend joins", Reward: 500, Category: model.TaskCategoryInvite, Icon: "users"},
	}

	for _, task := range defaults {
		if err := s.store.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("写入默认任务失败: %w", err)
		}
	}

	log.Printf("[TaskService] 默认任务目录已写入: %d 个任务", len(defaults))
	return nil
}
