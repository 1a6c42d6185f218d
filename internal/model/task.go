package model

// ============================================================================
// 任务类型常量
// ============================================================================

const (
	TaskCategoryAd     = "ad"     // 看广告
	TaskCategoryApp    = "app"    // 安装应用
	TaskCategorySurvey = "survey" // 问卷调查
	TaskCategoryDaily  = "daily"  // 每日签到
	TaskCategoryInvite = "invite" // 邀请好友
)

// Task 任务表
// 赚金币的机会列表，种子数据写入后不再修改（对 Ledger 而言只读）
type Task struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(128);not null" json:"title"`
	Description string `gorm:"type:varchar(256);not null" json:"description"`
	Reward      int64  `gorm:"not null" json:"reward"`                     // 完成奖励（金币数），恒 > 0
	Category    string `gorm:"type:varchar(20);not null" json:"category"`  // 任务类型
	Icon        string `gorm:"type:varchar(32);not null" json:"icon"`      // 客户端展示用图标名
}

func (Task) TableName() string {
	return "task"
}
