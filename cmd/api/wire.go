//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入不同，Wire在编译期生成代码
// 3. 优势：零运行时开销、类型安全、编译期检测循环依赖
//
// Wire工作流程：
// Step 1: 编写wire.go（本文件），定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

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
	"github.com/xiebiao/ticketflow/pkg/mq"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 基础设施层依赖
// 包含：配置加载、数据库连接、Redis连接
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
)

// repositorySet 仓储层依赖
// 包含：所有Repository的构造函数和事务管理器
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,         // 用户仓储
	mysql.NewEventRepository,        // 活动仓储
	mysql.NewStockRepository,        // 库存仓储
	mysql.NewCouponRepository,       // 优惠券仓储
	mysql.NewPointRepository,        // 积分仓储
	mysql.NewPointHistoryRepository, // 积分流水仓储
	mysql.NewPaymentRepository,      // 支付单仓储
	mysql.NewTicketRepository,       // 票仓储
	provideTxManager,                // 事务管理器（绑定到应用层接口）
)

// domainSet 领域层依赖
// 包含：所有领域服务的构造函数
var domainSet = wire.NewSet(
	stock.NewManager,                    // 库存领域服务
	point.NewLedger,                     // 积分领域服务
	domainpayment.NewDiscountCalculator, // 折扣计算服务
	ticket.NewService,                   // 出票服务
)

// applicationSet 应用层依赖
// 包含：所有Use Case的构造函数
var applicationSet = wire.NewSet(
	apppayment.NewReadyPaymentUseCase,     // 发起支付用例
	apppayment.NewApprovePaymentUseCase,   // 承认支付用例
	apppayment.NewCancelPaymentUseCase,    // 取消支付用例
	apppayment.NewFailPaymentUseCase,      // 支付失败用例
	apppayment.NewReconcilePaymentUseCase, // 对账补偿用例
)

// gatewaySet 外部系统依赖
var gatewaySet = wire.NewSet(
	provideGatewayClient,  // 支付网关客户端
	provideCallbackGuard,  // 回调幂等守卫
	provideEventPublisher, // 事件发布器
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,            // JWT管理器（需要从config提取参数）
	middleware.NewAuthMiddleware, // 认证中间件
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewPaymentHandler, // 支付处理器
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 说明：构造参数需要从Config提取、或返回值需要绑定到接口类型时，
// 编写自定义Provider函数

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
}

// provideTxManager 事务管理器（*mysql.TxManager → 应用层接口）
func provideTxManager(db *gorm.DB) apppayment.TxManager {
	return mysql.NewTxManager(db)
}

// provideGatewayClient 支付网关客户端（*kakaopay.Client → 领域接口）
func provideGatewayClient(cfg *config.Config) domainpayment.GatewayClient {
	return kakaopay.NewClient(cfg)
}

// provideCallbackGuard 回调幂等守卫（*redis.CallbackGuard → 应用层接口）
func provideCallbackGuard(client *goredis.Client) apppayment.CallbackGuard {
	return redis.NewCallbackGuard(client)
}

// provideEventPublisher 事件发布器
// MQ不可用时返回nil（事件发布降级为跳过，不阻塞支付链路）
func provideEventPublisher(cfg *config.Config) apppayment.EventPublisher {
	if cfg.MQ.URL == "" {
		return nil
	}
	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
	if err != nil {
		logger.L().Warn("消息队列连接失败,事件发布降级为跳过", zap.Error(err))
		return nil
	}
	return p
}

// provideGinEngine 创建并配置Gin引擎
// 路由注册复用main.go的registerRoutes
func provideGinEngine(
	cfg *config.Config,
	paymentHandler *handler.PaymentHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
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
	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化整个应用
// wire.Build 的参数是所有的 Provider，
// Wire会在编译期分析依赖关系，在wire_gen.go中生成初始化代码
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		// 基础设施层
		infrastructureSet,

		// 仓储层
		repositorySet,

		// 领域层
		domainSet,

		// 外部系统
		gatewaySet,

		// 应用层
		applicationSet,

		// 中间件层
		middlewareSet,

		// 接口层
		handlerSet,

		// Gin引擎
		provideGinEngine,
	)

	// 返回值是占位符，实际运行时由wire_gen.go替代
	return nil, nil
}
