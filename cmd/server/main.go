package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinrewards/internal/config"
	"coinrewards/internal/handler"
	"coinrewards/internal/infrastructure/cache"
	"coinrewards/internal/infrastructure/database"
	"coinrewards/internal/infrastructure/lock"
	"coinrewards/internal/infrastructure/mq"
	"coinrewards/internal/job"
	"coinrewards/internal/repository"
	"coinrewards/internal/repository/memory"
	mysqlrepo "coinrewards/internal/repository/mysql"
	"coinrewards/internal/service"
	"coinrewards/internal/session"
	"coinrewards/pkg/idgen"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 初始化 ID 生成器
	idgen.Init(1)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	// 按驱动装配存储 / 用户锁 / 会话
	var store repository.Store
	var locker lock.UserLocker
	var sessions session.Manager

	switch cfg.Storage.Driver {
	case config.StorageDriverMySQL:
		db := database.InitMySQL(&cfg.MySQL)
		rdb := cache.InitRedis(&cfg.Redis)
		store = mysqlrepo.NewStore(db)
		locker = lock.NewRedisLocker(rdb)
		sessions = session.NewRedisManager(rdb, sessionTTL)
	case config.StorageDriverMemory:
		store = memory.NewStore()
		locker = lock.NewMutexLocker()
		sessions = session.NewMemoryManager(sessionTTL)
		log.Println("存储驱动: memory（数据仅进程内有效）")
	default:
		log.Fatalf("未知的存储驱动: %s", cfg.Storage.Driver)
	}

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 写入默认任务目录
	ledgerService := service.NewLedgerService(store, locker, cfg)
	taskService := service.NewTaskService(store, ledgerService)
	if err := taskService.SeedDefaultTasks(ctx); err != nil {
		log.Fatalf("写入默认任务失败: %v", err)
	}

	// 启动后台任务
	if cfg.Kafka.Enabled {
		mq.InitKafka(&cfg.Kafka)
		defer mq.CloseKafka()

		outboxSender := job.NewOutboxSender(store, cfg)
		go outboxSender.Start(ctx)
	}

	reconcileJob := job.NewReconcileJob(store)
	go reconcileJob.Start(ctx)

	// 设置路由
	router := handler.SetupRouter(store, sessions, locker, cfg)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
}
