package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/vinuthas0102/WO-Module-sub004/internal/config"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/handler"
	"github.com/vinuthas0102/WO-Module-sub004/internal/middleware"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wo-module service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化仓储/服务/处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg)
	handlers := handler.NewHandlers(services, repos, cfg)

	// 默认管理员账号（仅在用户表为空时创建）
	if err := seedAdminUser(db); err != nil {
		zapLogger.Warn("Seed admin user warning", zap.Error(err))
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.WorkOrder{},
		&entity.FinanceApproval{},
		&entity.ItemMaster{},
		&entity.SpecMaster{},
		&entity.WorkOrderItem{},
		&entity.WorkOrderSpec{},
		&entity.Allocation{},
		&entity.WorkflowStep{},
		&entity.Document{},
		&entity.ProgressDocument{},
		&entity.OperationLog{},
	); err != nil {
		return err
	}

	// 旧库补列: 明细表上的已分配数量
	db.Exec("ALTER TABLE work_order_items ADD COLUMN IF NOT EXISTS allocated_quantity DECIMAL(15,4) DEFAULT 0")
	db.Exec("ALTER TABLE work_order_specs ADD COLUMN IF NOT EXISTS allocated_quantity DECIMAL(15,4) DEFAULT 0")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_allocations_detail ON allocations(detail_type, detail_id)")

	return nil
}

// seedAdminUser 空库时创建默认管理员，密码来自ADMIN_PASSWORD环境变量
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := config.GetEnvOrDefault("ADMIN_PASSWORD", "admin123")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     "admin",
		Name:         "Administrator",
		PasswordHash: string(hash),
		Roles:        entity.StringList{"wo_admin"},
		Status:       "active",
	}
	return db.Create(admin).Error
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户
			users := authorized.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/search", h.User.Search)
			}

			// 主数据
			catalog := authorized.Group("/catalog")
			{
				catalog.POST("/items", h.Catalog.CreateItem)
				catalog.GET("/items", h.Catalog.ListItems)
				catalog.PUT("/items/:id", h.Catalog.UpdateItem)
				catalog.PUT("/items/:id/active", h.Catalog.SetItemActive)
				catalog.POST("/specs", h.Catalog.CreateSpec)
				catalog.GET("/specs", h.Catalog.ListSpecs)
				catalog.PUT("/specs/:id", h.Catalog.UpdateSpec)
				catalog.PUT("/specs/:id/active", h.Catalog.SetSpecActive)
			}

			// 工单
			workOrders := authorized.Group("/work-orders")
			{
				workOrders.POST("", h.WorkOrder.Create)
				workOrders.GET("", h.WorkOrder.List)
				workOrders.GET("/:id", h.WorkOrder.Get)
				workOrders.PUT("/:id", h.WorkOrder.Update)
				workOrders.PUT("/:id/status", h.WorkOrder.UpdateStatus)
				workOrders.DELETE("/:id", h.WorkOrder.Delete)
				workOrders.GET("/:id/export", h.WorkOrder.ExportDetails)
				workOrders.GET("/:id/history", h.WorkOrder.ListHistory)

				// 财务审批
				workOrders.POST("/:id/approvals", h.WorkOrder.SubmitApproval)
				workOrders.GET("/:id/approvals", h.WorkOrder.ListApprovals)

				// 明细
				workOrders.POST("/:id/items", h.Detail.AddItem)
				workOrders.GET("/:id/items", h.Detail.ListItems)
				workOrders.POST("/:id/specs", h.Detail.AddSpec)
				workOrders.GET("/:id/specs", h.Detail.ListSpecs)
				workOrders.POST("/:id/allocations", h.Detail.Allocate)

				// 工作流步骤
				workOrders.POST("/:id/steps", h.Step.Create)
				workOrders.POST("/:id/steps/bulk", h.Step.BulkCreate)
				workOrders.GET("/:id/steps", h.Step.List)

				// 进度文档与附件复制
				workOrders.POST("/:id/progress-documents", h.Document.UploadProgress)
				workOrders.GET("/:id/progress-documents", h.Document.ListProgress)
				workOrders.POST("/:id/copy-attachments", h.Document.CopyAttachments)
			}

			// 审批决策
			approvals := authorized.Group("/approvals")
			{
				approvals.POST("/:id/approve", h.WorkOrder.Approve)
				approvals.POST("/:id/reject", h.WorkOrder.Reject)
			}

			// 明细与分配
			authorized.DELETE("/details/:type/:id", h.Detail.DeleteDetail)
			authorized.GET("/details/:type/:id/allocations", h.Detail.ListDetailAllocations)
			allocations := authorized.Group("/allocations")
			{
				allocations.PUT("/:id", h.Detail.UpdateAllocation)
				allocations.DELETE("/:id", h.Detail.DeleteAllocation)
			}

			// 步骤
			steps := authorized.Group("/steps")
			{
				steps.GET("/:id", h.Step.Get)
				steps.PUT("/:id", h.Step.Update)
				steps.PUT("/:id/status", h.Step.UpdateStatus)
				steps.DELETE("/:id", h.Step.Delete)
				steps.GET("/:id/allocations", h.Detail.ListStepAllocations)
			}

			// 附件
			documents := authorized.Group("/documents")
			{
				documents.POST("/:scope/:scope_id", h.Document.Upload)
				documents.GET("/:scope/:scope_id", h.Document.List)
				documents.DELETE("/:id", h.Document.Delete)
			}

			// 进度文档删除
			authorized.DELETE("/progress-documents/:id", h.Document.DeleteProgress)
		}
	}
}
