package mysql

import (
	"context"
	"errors"

	"coinrewards/internal/model"
	"coinrewards/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	// 邮箱唯一靠 uniqueIndex 兜底：冲突时 DoNothing，RowsAffected == 0
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(user)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrEmailTaken
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepo) ApplyBalanceDelta(ctx context.Context, userID int64, delta int64, version int) error {
	// CAS 更新：版本号匹配且变更后余额不为负才生效
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND version = ? AND balance + ? >= 0", userID, version, delta).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", delta),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// 区分失败原因：用户不存在 / 余额不足 / 版本冲突
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Balance+delta < 0 {
			return repository.ErrBalanceNotEnough
		}
		return repository.ErrOptimisticLock
	}

	return nil
}
