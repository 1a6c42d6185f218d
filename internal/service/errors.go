package service

import "errors"

// 业务错误
// API 层用 errors.Is 翻译成 HTTP 状态码，存储层错误见 repository 包
var (
	ErrInvalidAmount          = errors.New("金额不合法")
	ErrInvalidTransactionType = errors.New("交易类型不合法")
	ErrEmptyDescription       = errors.New("流水描述不能为空")
	ErrBelowMinWithdraw       = errors.New("低于最小提现额度")
	ErrInvalidCredentials     = errors.New("邮箱或密码错误")
	ErrInvalidInput           = errors.New("输入不合法")
)
