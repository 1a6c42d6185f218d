package handler

import (
	"coinrewards/internal/config"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/repository"
	"coinrewards/internal/session"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
func SetupRouter(store repository.Store, sessions session.Manager, locker lock.UserLocker, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(store, sessions, locker, cfg)
	authRequired := SessionAuthMiddleware(sessions)

	api := r.Group("/api")
	{
		// 认证相关
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", authRequired, h.Me)
		}

		// 任务相关（列表公开，领奖需要登录）
		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.ListTasks)
			tasks.POST("/:id/complete", authRequired, h.CompleteTask)
		}

		// 钱包相关
		wallet := api.Group("/wallet")
		wallet.Use(authRequired)
		{
			wallet.GET("", h.GetWallet)
			wallet.POST("/withdraw", h.Withdraw)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
