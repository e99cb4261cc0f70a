package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-erp/internal/config"
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/handler"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/bitfantasy/nimo-erp/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
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

	zapLogger.Info("Starting nimo-erp service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// AutoMigrate ERP tables
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate ERP tables", zap.Error(err))
	}
	zapLogger.Info("ERP database migration completed")

	// 初始化 ERP 依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, zapLogger, service.Options{
		RevisionRetention: cfg.Planning.RevisionRetention,
		DefaultMaxLevels:  cfg.Planning.MaxBOMLevels,
	})
	handlers := handler.NewHandlers(services)

	// 确定端口
	port := os.Getenv("ERP_PORT")
	if port == "" {
		port = "8081"
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

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-erp"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-erp"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "nimo-erp",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// ERP API v1
	v1 := router.Group("/api/v1/erp")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 物料主数据
		items := v1.Group("/items")
		{
			items.GET("", handlers.Item.List)
			items.POST("", handlers.Item.Create)
			items.GET("/:id", handlers.Item.Get)
			items.PUT("/:id", handlers.Item.Update)
			items.DELETE("/:id", handlers.Item.Delete)
		}

		// 往来单位
		partners := v1.Group("/partners")
		{
			partners.GET("", handlers.Partner.List)
			partners.POST("", handlers.Partner.Create)
			partners.GET("/:id", handlers.Partner.Get)
			partners.PUT("/:id", handlers.Partner.Update)
		}

		// BOM
		bom := v1.Group("/bom")
		{
			bom.GET("", handlers.BOM.Search)
			bom.POST("", handlers.BOM.CreateLine)
			bom.PUT("/lines/:id", handlers.BOM.UpdateLine)
			bom.DELETE("/lines/:id", handlers.BOM.DeleteLine)
			bom.GET("/parents", handlers.BOM.ListParents)
			bom.POST("/copy", handlers.BOM.CopyBOM)
			bom.GET("/items/:item_id", handlers.BOM.GetBOM)
			bom.DELETE("/items/:item_id", handlers.BOM.DeleteBOM)
			bom.POST("/items/:item_id/explode", handlers.BOM.Explode)
			bom.GET("/items/:item_id/revisions", handlers.BOM.ListRevisions)
			bom.POST("/items/:item_id/revisions", handlers.BOM.CreateRevision)
			bom.PATCH("/items/:item_id/revisions/:revision/status", handlers.BOM.SetRevisionStatus)
		}

		// 生产计划 / MRP
		plans := v1.Group("/plans")
		{
			plans.GET("", handlers.Planning.List)
			plans.POST("", handlers.Planning.CreatePlan)
			plans.GET("/:id", handlers.Planning.Get)
			plans.DELETE("/:id", handlers.Planning.Delete)
			plans.POST("/:id/items", handlers.Planning.AddItems)
			plans.POST("/:id/calculate", handlers.Planning.Calculate)
			plans.POST("/:id/process", handlers.Planning.Process)
			plans.GET("/:id/results", handlers.Planning.Results)
			plans.GET("/:id/purchase-requisitions", handlers.Planning.ListPRs)
		}

		// 采购申请 / 采购订单
		prs := v1.Group("/purchase-requisitions")
		{
			prs.POST("/:id/approve", handlers.Planning.ApprovePR)
			prs.POST("/:id/convert", handlers.Planning.ConvertPR)
		}
		pos := v1.Group("/purchase-orders")
		{
			pos.GET("", handlers.Planning.ListPOs)
			pos.GET("/:id", handlers.Planning.GetPO)
		}

		// 生产工单
		workOrders := v1.Group("/work-orders")
		{
			workOrders.GET("", handlers.Manufacturing.List)
			workOrders.POST("/generate-from-bom", handlers.Manufacturing.Generate)
			workOrders.GET("/stats", handlers.Manufacturing.Stats)
			workOrders.GET("/:id", handlers.Manufacturing.Get)
			workOrders.PUT("/:id", handlers.Manufacturing.Update)
			workOrders.POST("/:id/consume", handlers.Manufacturing.Consume)
			workOrders.POST("/:id/issue", handlers.Manufacturing.Issue)
			workOrders.POST("/:id/complete", handlers.Manufacturing.Complete)
		}

		// 库存
		inventory := v1.Group("/inventory")
		{
			inventory.GET("/balances", handlers.Inventory.Balances)
			inventory.GET("/transactions", handlers.Inventory.Transactions)
			inventory.POST("/transactions", handlers.Inventory.CreateTransaction)
			inventory.GET("/cost-layers", handlers.Inventory.CostLayers)
			inventory.GET("/valuation", handlers.Inventory.Valuation)
			inventory.GET("/warehouses", handlers.Inventory.ListWarehouses)
			inventory.POST("/warehouses", handlers.Inventory.CreateWarehouse)
		}

		// 销售订单
		salesOrders := v1.Group("/sales-orders")
		{
			salesOrders.GET("", handlers.Sales.List)
			salesOrders.POST("", handlers.Sales.Create)
			salesOrders.GET("/:id", handlers.Sales.Get)
			salesOrders.PUT("/:id/status", handlers.Sales.SetStatus)
			salesOrders.POST("/:id/deliver", handlers.Sales.RecordDelivery)
		}
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("ERP Server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down ERP server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("ERP Server exited")
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
