package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/event"
	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// CancelPaymentUseCase 取消支付用例(退款)
type CancelPaymentUseCase struct {
	paymentRepo payment.Repository
	eventRepo   event.Repository
	stockMgr    stock.Manager
	ledger      point.Ledger
	gateway     payment.GatewayClient
	guard       CallbackGuard
	txManager   TxManager
	publisher   EventPublisher
}

// NewCancelPaymentUseCase 创建取消支付用例
func NewCancelPaymentUseCase(
	paymentRepo payment.Repository,
	eventRepo event.Repository,
	stockMgr stock.Manager,
	ledger point.Ledger,
	gateway payment.GatewayClient,
	guard CallbackGuard,
	txManager TxManager,
	publisher EventPublisher,
) *CancelPaymentUseCase {
	return &CancelPaymentUseCase{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		stockMgr:    stockMgr,
		ledger:      ledger,
		gateway:     gateway,
		guard:       guard,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// CancelPaymentRequest 取消支付请求
type CancelPaymentRequest struct {
	TID string `json:"tid" form:"tid" binding:"required"`
}

// CancelPaymentResponse 取消支付响应
type CancelPaymentResponse struct {
	PaymentID      uint   `json:"payment_id"`
	PartnerOrderID string `json:"partner_order_id"`
	CanceledAmount int64  `json:"canceled_amount"`
	RestoredPoints int64  `json:"restored_points"`
	Status         string `json:"status"`
}

// Execute 执行取消支付
// 业务规则:
// 1. 只有APPROVED状态的支付单可以取消(READY取消 → ErrInvalidStatusTransition)
// 2. 募集期结束后不允许取消(ErrCancellationPeriodExpired)
// 3. 退款、积分返还、库存回补、状态转换在同一事务内生效
// 4. 优惠券不返还:券随支付单一次性消耗(产品规则)
func (uc *CancelPaymentUseCase) Execute(ctx context.Context, req *CancelPaymentRequest) (*CancelPaymentResponse, error) {
	// ========================================
	// 1. 抢占回调处理权(幂等守卫)
	// ========================================
	if err := uc.guard.Acquire(ctx, "cancel", req.TID); err != nil {
		return nil, err
	}

	resp, err := uc.cancel(ctx, req)
	if err != nil {
		if releaseErr := uc.guard.Release(ctx, "cancel", req.TID); releaseErr != nil {
			logger.L().Warn("释放回调守卫失败",
				zap.String("tid", req.TID),
				zap.Error(releaseErr),
			)
		}
		return nil, err
	}
	return resp, nil
}

func (uc *CancelPaymentUseCase) cancel(ctx context.Context, req *CancelPaymentRequest) (*CancelPaymentResponse, error) {
	// ========================================
	// 2. 定位支付单并校验状态
	// ========================================
	pay, err := uc.paymentRepo.FindByTID(ctx, req.TID)
	if err != nil {
		return nil, err
	}
	if !pay.CanTransitionTo(payment.StatusCanceled) {
		return nil, payment.ErrInvalidStatusTransition
	}

	// ========================================
	// 3. 取消窗口校验(募集期结束后不可取消)
	// ========================================
	evt, err := uc.eventRepo.FindByID(ctx, pay.EventID)
	if err != nil {
		return nil, err
	}
	if evt.IsFinishedRecruitment(time.Now()) {
		return nil, payment.ErrCancellationPeriodExpired
	}

	// ========================================
	// 4. 网关退款 + 本地补偿(同一事务)
	// 网关cancel放在事务第一步:退款失败 → 本地零改动;
	// 退款成功后的本地失败会回滚状态,靠对账用例修复(退款侧幂等)
	// ========================================
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.gateway.Cancel(txCtx, pay.TID, pay.DiscountedAmount, 0); err != nil {
			return err
		}

		// 返还积分(金额取自扣减时的快照)
		if pay.UsedPoints() {
			if err := uc.ledger.Restore(txCtx, pay.UserID, pay.PointAmount, pay.ID); err != nil {
				return err
			}
		}

		// 回补库存
		if err := uc.stockMgr.Increment(txCtx, pay.EventID); err != nil {
			return err
		}

		if err := pay.Cancel(); err != nil {
			return err
		}
		return uc.paymentRepo.Update(txCtx, pay)
	})
	if err != nil {
		return nil, err
	}

	if metrics.PaymentsCanceledTotal != nil {
		metrics.IncCounter(metrics.PaymentsCanceledTotal)
	}
	publishLifecycleEvent(uc.publisher, RoutingKeyPaymentCanceled, pay)

	return &CancelPaymentResponse{
		PaymentID:      pay.ID,
		PartnerOrderID: pay.PartnerOrderID,
		CanceledAmount: pay.DiscountedAmount,
		RestoredPoints: pay.PointAmount,
		Status:         pay.Status.String(),
	}, nil
}
