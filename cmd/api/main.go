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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	apppayment "github.com/xiebiao/ticketflow/internal/application/payment"
	domainpayment "github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/internal/domain/ticket"
	"github.com/xiebiao/ticketflow/internal/infrastructure/config"
	"github.com/xiebiao/ticketflow/internal/infrastructure/gateway/kakaopay"
	"github.com/xiebiao/ticketflow/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/ticketflow/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/ticketflow/internal/interface/http/handler"
	"github.com/xiebiao/ticketflow/internal/interface/http/middleware"
	"github.com/xiebiao/ticketflow/pkg/jwt"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
	"github.com/xiebiao/ticketflow/pkg/mq"
	"github.com/xiebiao/ticketflow/pkg/response"
	"github.com/xiebiao/ticketflow/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入（wire.go提供Wire版本，运行`wire gen ./cmd/api`生成）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	flush, err := logger.Init(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer flush()

	// 3. 初始化指标与链路追踪
	metrics.InitMetrics()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer("ticketflow", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	// 4. 初始化数据库与Redis连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 5. 初始化消息队列(可降级:MQ不可用时事件发布跳过,不阻塞支付链路)
	var publisher apppayment.EventPublisher
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			logger.L().Warn("消息队列连接失败,事件发布降级为跳过", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	// 6. 依赖注入（手动组装）
	// 依赖链：Repository ← 领域服务 ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	eventRepo := mysql.NewEventRepository(db)
	stockRepo := mysql.NewStockRepository(db)
	couponRepo := mysql.NewCouponRepository(db)
	pointRepo := mysql.NewPointRepository(db)
	pointHistoryRepo := mysql.NewPointHistoryRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	ticketRepo := mysql.NewTicketRepository(db)
	txManager := mysql.NewTxManager(db)
	callbackGuard := redis.NewCallbackGuard(redisClient)
	gatewayClient := kakaopay.NewClient(cfg)
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)

	// 领域层
	stockManager := stock.NewManager(stockRepo)
	pointLedger := point.NewLedger(pointRepo, pointHistoryRepo)
	discountCalculator := domainpayment.NewDiscountCalculator(couponRepo, pointRepo)
	ticketService := ticket.NewService(ticketRepo)

	// 应用层
	readyUseCase := apppayment.NewReadyPaymentUseCase(
		userRepo, eventRepo, paymentRepo, couponRepo,
		stockManager, pointLedger, discountCalculator,
		gatewayClient, txManager, publisher,
	)
	approveUseCase := apppayment.NewApprovePaymentUseCase(
		paymentRepo, ticketService, gatewayClient, callbackGuard, txManager, publisher,
	)
	cancelUseCase := apppayment.NewCancelPaymentUseCase(
		paymentRepo, eventRepo, stockManager, pointLedger,
		gatewayClient, callbackGuard, txManager, publisher,
	)
	failUseCase := apppayment.NewFailPaymentUseCase(
		paymentRepo, callbackGuard, txManager, publisher,
	)
	reconcileUseCase := apppayment.NewReconcilePaymentUseCase(
		paymentRepo, stockManager, pointLedger, pointHistoryRepo,
	)

	// 接口层
	paymentHandler := handler.NewPaymentHandler(
		readyUseCase, approveUseCase, cancelUseCase, failUseCase, reconcileUseCase,
	)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// 7. 初始化Gin引擎与路由
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Trace("ticketflow"))
	}
	r.Use(middleware.AccessLog(), middleware.Metrics())

	registerRoutes(r, paymentHandler, authMiddleware)

	// 8. 启动服务(带优雅停机:等待处理中的支付请求完成)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.L().Info("服务启动", zap.String("addr", addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("收到停机信号,开始优雅停机")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("优雅停机失败", zap.Error(err))
	}
	logger.L().Info("服务已停止")
}

// registerRoutes 注册路由
// 路由分三类:
// 1. 运维端点:/ping、/metrics、/swagger
// 2. 用户接口:需要登录(Bearer Token)
// 3. 网关回调:不走登录(网关不持有用户Token),靠TID定位支付单+幂等守卫防重放
func registerRoutes(r *gin.Engine, paymentHandler *handler.PaymentHandler, authMiddleware *middleware.AuthMiddleware) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档(访问 /swagger/index.html)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			// 用户接口(需要登录)
			payments.POST("/ready", authMiddleware.RequireAuth(), paymentHandler.Ready)
			payments.POST("/reconcile", authMiddleware.RequireAuth(), paymentHandler.Reconcile)

			// 网关回调(不需要登录)
			callbacks := payments.Group("/callback")
			{
				callbacks.POST("/approve", paymentHandler.ApproveCallback)
				callbacks.POST("/cancel", paymentHandler.Cancel)
				callbacks.POST("/fail", paymentHandler.FailCallback)
			}
		}
	}
}
