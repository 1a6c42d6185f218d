package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinrewards/internal/model"
	"coinrewards/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 注册 / 登录
// 只负责身份，不碰余额：新用户余额恒为 0，之后的变更全部走 LedgerService
type AuthService struct {
	store repository.Store
}

func NewAuthService(store repository.Store) *AuthService {
	return &AuthService{store: store}
}

// Register 注册新用户，邮箱重复返回 repository.ErrEmailTaken
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      0,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验邮箱密码，不区分"用户不存在"和"密码错误"
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser 按ID取用户
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.store.Users().GetByID(ctx, id)
}
