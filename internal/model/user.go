package model

import (
	"time"
)

// User 用户表
// 记录用户的注册信息和金币余额，余额只能通过 Ledger 变更
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(64);not null" json:"name"`
	Email        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"` // 邮箱，全局唯一
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`                 // bcrypt 哈希，不出现在响应里
	Balance      int64     `gorm:"not null;default:0" json:"balance"`                   // 金币余额，恒 >= 0
	Version      int       `gorm:"not null;default:0" json:"-"`                         // 乐观锁版本号
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
