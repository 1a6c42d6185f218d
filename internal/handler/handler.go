package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"coinrewards/internal/config"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/repository"
	"coinrewards/internal/service"
	"coinrewards/internal/session"
	"coinrewards/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	authService   *service.AuthService
	taskService   *service.TaskService
	ledgerService *service.LedgerService
	sessions      session.Manager
	cfg           *config.Config
}

// NewHandler 创建处理器实例
func NewHandler(store repository.Store, sessions session.Manager, locker lock.UserLocker, cfg *config.Config) *Handler {
	ledgerService := service.NewLedgerService(store, locker, cfg)
	return &Handler{
		authService:   service.NewAuthService(store),
		taskService:   service.NewTaskService(store, ledgerService),
		ledgerService: ledgerService,
		sessions:      sessions,
		cfg:           cfg,
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, maxAge, "/", "", false, true)
}

// ============================================================
// 认证相关接口
// ============================================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			response.ParamError(c, "Email already in use")
		case errors.Is(err, service.ErrInvalidInput):
			response.ParamError(c, "Invalid input")
		default:
			response.ServerError(c, "Internal server error")
		}
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		response.ServerError(c, "Internal server error")
		return
	}
	h.setSessionCookie(c, token, h.cfg.Session.TTLMinutes*60)

	response.Created(c, user)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "Invalid credentials")
			return
		}
		response.ServerError(c, "Internal server error")
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		response.ServerError(c, "Internal server error")
		return
	}
	h.setSessionCookie(c, token, h.cfg.Session.TTLMinutes*60)

	response.OK(c, user)
}

// Logout 注销会话
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		_ = h.sessions.Destroy(c.Request.Context(), token)
	}
	h.setSessionCookie(c, "", -1)

	response.OK(c, gin.H{"message": "Logged out"})
}

// Me 当前登录用户
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	userID := currentUserID(c)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}
	response.OK(c, user)
}

// ============================================================
// 任务相关接口
// ============================================================

// ListTasks 任务目录
// GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.taskService.ListTasks(c.Request.Context())
	if err != nil {
		response.ServerError(c, "Internal server error")
		return
	}
	response.OK(c, tasks)
}

// CompleteTask 完成任务领取奖励
// POST /api/tasks/:id/complete
func (h *Handler) CompleteTask(c *gin.Context) {
	userID := currentUserID(c)

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.NotFound(c, "Task not found")
		return
	}

	user, task, err := h.taskService.CompleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			response.NotFound(c, "Task not found")
		case errors.Is(err, repository.ErrUserNotFound):
			response.Unauthorized(c, "Unauthorized")
		default:
			response.ServerError(c, "Internal server error")
		}
		return
	}

	response.OK(c, gin.H{
		"newBalance": user.Balance,
		"message":    fmt.Sprintf("Earned %d coins!", task.Reward),
	})
}

// ============================================================
// 钱包相关接口
// ============================================================

const walletLedgerPageSize = 100

// GetWallet 余额 + 流水
// GET /api/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	userID := currentUserID(c)

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	transactions, _, err := h.ledgerService.GetLedger(c.Request.Context(), userID, 1, walletLedgerPageSize)
	if err != nil {
		response.ServerError(c, "Internal server error")
		return
	}

	response.OK(c, gin.H{
		"balance":      balance,
		"transactions": transactions,
	})
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Withdraw 提现（模拟 UPI 转账）
// POST /api/wallet/withdraw
func (h *Handler) Withdraw(c *gin.Context) {
	userID := currentUserID(c)

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid amount")
		return
	}

	user, err := h.ledgerService.Withdraw(c.Request.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBalanceNotEnough):
			response.ParamError(c, "Insufficient balance")
		case errors.Is(err, service.ErrBelowMinWithdraw):
			response.ParamError(c, fmt.Sprintf("Minimum withdrawal is %d coins", h.cfg.Business.MinWithdrawCoins))
		case errors.Is(err, service.ErrInvalidAmount):
			response.ParamError(c, "Invalid amount")
		case errors.Is(err, repository.ErrUserNotFound):
			response.Unauthorized(c, "Unauthorized")
		default:
			response.ServerError(c, "Internal server error")
		}
		return
	}

	response.OK(c, gin.H{
		"newBalance": user.Balance,
		"message":    "Withdrawal successful!",
	})
}
