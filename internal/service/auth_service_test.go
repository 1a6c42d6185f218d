package service

import (
	"context"
	"testing"

	"coinrewards/internal/repository"
	"coinrewards/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore())

	user, err := svc.Register(ctx, "Priya", "priya@example.com", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(0), user.Balance, "新用户余额必须是 0")
	assert.NotEqual(t, "secret123", user.PasswordHash, "密码必须存哈希")

	got, err := svc.Login(ctx, "priya@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// 邮箱大小写不敏感
	got, err = svc.Login(ctx, "Priya@Example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewAuthService(store)

	_, err := svc.Register(ctx, "Priya", "priya@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Someone Else", "priya@example.com", "other456")
	require.ErrorIs(t, err, repository.ErrEmailTaken)

	// 失败的注册不能留下用户
	ids, err := store.Users().ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore())

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"姓名为空", "", "a@example.com", "secret"},
		{"邮箱为空", "Priya", "", "secret"},
		{"密码为空", "Priya", "a@example.com", ""},
		{"邮箱没有@", "Priya", "not-an-email", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore())

	_, err := svc.Register(ctx, "Priya", "priya@example.com", "secret123")
	require.NoError(t, err)

	// 密码错误和用户不存在返回同一个错误，不泄露账号是否存在
	_, err = svc.Login(ctx, "priya@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
