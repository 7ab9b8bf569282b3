// 对账补偿worker
//
// 职责:释放FAILED支付单占用的库存和积分(fail回调只转状态不做补偿)。
// 两个触发源:
// 1. 定时扫描(兜底,扫出所有未补偿的FAILED支付单)
// 2. payment.failed事件(即时触发,缩短资源占用窗口)
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apppayment "github.com/xiebiao/ticketflow/internal/application/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/internal/infrastructure/config"
	"github.com/xiebiao/ticketflow/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/mq"
)

const (
	scanInterval = time.Minute // 定时扫描间隔
	scanLimit    = 100         // 单轮扫描上限
)

func main() {
	// 1. 加载配置与日志
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	flush, err := logger.Init(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer flush()

	// 2. 初始化数据库与用例
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	stockRepo := mysql.NewStockRepository(db)
	pointRepo := mysql.NewPointRepository(db)
	historyRepo := mysql.NewPointHistoryRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)

	reconcile := apppayment.NewReconcilePaymentUseCase(
		paymentRepo,
		stock.NewManager(stockRepo),
		point.NewLedger(pointRepo, historyRepo),
		historyRepo,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 订阅payment.failed事件(MQ不可用时只靠定时扫描)
	if cfg.MQ.URL != "" {
		consumer, err := mq.NewConsumer(
			cfg.MQ.URL, cfg.MQ.Exchange, "topic",
			"payment.reconciler",
			[]string{apppayment.RoutingKeyPaymentFailed},
		)
		if err != nil {
			logger.L().Warn("消息队列连接失败,降级为纯定时扫描", zap.Error(err))
		} else {
			defer consumer.Close()
			go func() {
				err := consumer.Consume(ctx, func(body []byte) error {
					var evt apppayment.LifecycleEvent
					if err := json.Unmarshal(body, &evt); err != nil {
						// 消息格式错误,重入队也救不回来,Ack丢弃
						logger.L().Warn("事件解析失败,丢弃", zap.Error(err))
						return nil
					}

					logger.L().Info("收到支付失败事件,触发补偿",
						zap.Uint("payment_id", evt.PaymentID),
					)
					_, err := reconcile.Execute(ctx, scanLimit)
					return err
				})
				if err != nil {
					logger.L().Error("消费者退出", zap.Error(err))
				}
			}()
		}
	}

	// 4. 定时扫描(兜底)
	logger.L().Info("对账worker启动",
		zap.Duration("scan_interval", scanInterval),
		zap.Int("scan_limit", scanLimit),
	)

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.L().Info("对账worker停止")
			return

		case <-ticker.C:
			result, err := reconcile.Execute(ctx, scanLimit)
			if err != nil {
				logger.L().Error("对账扫描失败", zap.Error(err))
				continue
			}
			if result.Scanned > 0 {
				logger.L().Info("对账扫描完成",
					zap.Int("scanned", result.Scanned),
					zap.Int("compensated", result.Compensated),
					zap.Int("skipped", result.Skipped),
					zap.Int("failed_to_heal", result.FailedToHeal),
				)
			}
		}
	}
}
