package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// FailPaymentUseCase 支付失败用例(网关fail回调)
type FailPaymentUseCase struct {
	paymentRepo payment.Repository
	guard       CallbackGuard
	txManager   TxManager
	publisher   EventPublisher
}

// NewFailPaymentUseCase 创建支付失败用例
func NewFailPaymentUseCase(
	paymentRepo payment.Repository,
	guard CallbackGuard,
	txManager TxManager,
	publisher EventPublisher,
) *FailPaymentUseCase {
	return &FailPaymentUseCase{
		paymentRepo: paymentRepo,
		guard:       guard,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// FailPaymentRequest 支付失败请求
type FailPaymentRequest struct {
	TID string `json:"tid" form:"tid" binding:"required"`
}

// FailPaymentResponse 支付失败响应
type FailPaymentResponse struct {
	PaymentID      uint   `json:"payment_id"`
	PartnerOrderID string `json:"partner_order_id"`
	Status         string `json:"status"`
}

// Execute 执行支付失败标记
// 设计说明:fail回调只做状态转换,不在回调链路里做资源补偿
// (库存回补、积分返还):回调处理必须快进快出,
// 补偿由对账用例(ReconcilePaymentUseCase)异步完成
func (uc *FailPaymentUseCase) Execute(ctx context.Context, req *FailPaymentRequest) (*FailPaymentResponse, error) {
	// ========================================
	// 1. 抢占回调处理权(幂等守卫)
	// ========================================
	if err := uc.guard.Acquire(ctx, "fail", req.TID); err != nil {
		return nil, err
	}

	resp, err := uc.fail(ctx, req)
	if err != nil {
		if releaseErr := uc.guard.Release(ctx, "fail", req.TID); releaseErr != nil {
			logger.L().Warn("释放回调守卫失败",
				zap.String("tid", req.TID),
				zap.Error(releaseErr),
			)
		}
		return nil, err
	}
	return resp, nil
}

func (uc *FailPaymentUseCase) fail(ctx context.Context, req *FailPaymentRequest) (*FailPaymentResponse, error) {
	// ========================================
	// 2. 定位支付单
	// ========================================
	pay, err := uc.paymentRepo.FindByTID(ctx, req.TID)
	if err != nil {
		return nil, err
	}

	// ========================================
	// 3. 状态转换(只有READY可以转FAILED)
	// ========================================
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := pay.Fail(); err != nil {
			return err
		}
		return uc.paymentRepo.Update(txCtx, pay)
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("支付标记为失败,等待对账补偿",
		zap.Uint("payment_id", pay.ID),
		zap.String("tid", pay.TID),
	)
	if metrics.PaymentsFailedTotal != nil {
		metrics.IncCounter(metrics.PaymentsFailedTotal)
	}
	publishLifecycleEvent(uc.publisher, RoutingKeyPaymentFailed, pay)

	return &FailPaymentResponse{
		PaymentID:      pay.ID,
		PartnerOrderID: pay.PartnerOrderID,
		Status:         pay.Status.String(),
	}, nil
}
