package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/ticket"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// CallbackGuard 回调幂等守卫接口
// redis.CallbackGuard满足该接口;单测中用内存map实现替换
type CallbackGuard interface {
	Acquire(ctx context.Context, op, tid string) error
	Release(ctx context.Context, op, tid string) error
}

// ApprovePaymentUseCase 承认支付用例(网关approve回调)
type ApprovePaymentUseCase struct {
	paymentRepo payment.Repository
	ticketSvc   ticket.Service
	gateway     payment.GatewayClient
	guard       CallbackGuard
	txManager   TxManager
	publisher   EventPublisher
}

// NewApprovePaymentUseCase 创建承认支付用例
func NewApprovePaymentUseCase(
	paymentRepo payment.Repository,
	ticketSvc ticket.Service,
	gateway payment.GatewayClient,
	guard CallbackGuard,
	txManager TxManager,
	publisher EventPublisher,
) *ApprovePaymentUseCase {
	return &ApprovePaymentUseCase{
		paymentRepo: paymentRepo,
		ticketSvc:   ticketSvc,
		gateway:     gateway,
		guard:       guard,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// ApprovePaymentRequest 承认支付请求(网关回调参数)
type ApprovePaymentRequest struct {
	TID     string `json:"tid" form:"tid" binding:"required"`
	PgToken string `json:"pg_token" form:"pg_token" binding:"required"`
}

// ApprovePaymentResponse 承认支付响应
type ApprovePaymentResponse struct {
	PaymentID      uint   `json:"payment_id"`
	PartnerOrderID string `json:"partner_order_id"`
	TicketID       uint   `json:"ticket_id"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
}

// Execute 执行承认支付
// 设计说明:
//  1. 回调可能重复送达:SETNX守卫抢不到直接返回ErrDuplicateCallback;
//     处理失败时主动释放守卫,让网关的下一次重试能进来
//  2. 网关approve失败时支付单保持READY不动:
//     用户可以重新走支付页,或等失败回调把它转为FAILED
//  3. 出票和状态转换在同一事务内:不存在"钱收了票没出"的中间态
func (uc *ApprovePaymentUseCase) Execute(ctx context.Context, req *ApprovePaymentRequest) (*ApprovePaymentResponse, error) {
	// ========================================
	// 1. 抢占回调处理权(幂等守卫)
	// ========================================
	if err := uc.guard.Acquire(ctx, "approve", req.TID); err != nil {
		return nil, err
	}

	resp, err := uc.approve(ctx, req)
	if err != nil {
		// 处理失败,释放守卫允许网关重试
		if releaseErr := uc.guard.Release(ctx, "approve", req.TID); releaseErr != nil {
			logger.L().Warn("释放回调守卫失败",
				zap.String("tid", req.TID),
				zap.Error(releaseErr),
			)
		}
		return nil, err
	}
	return resp, nil
}

func (uc *ApprovePaymentUseCase) approve(ctx context.Context, req *ApprovePaymentRequest) (*ApprovePaymentResponse, error) {
	// ========================================
	// 2. 按网关交易号定位支付单
	// ========================================
	pay, err := uc.paymentRepo.FindByTID(ctx, req.TID)
	if err != nil {
		return nil, err
	}

	// 终态或已承认的支付单拒绝再次承认(守卫TTL过期后的重放在这里拦截)
	if !pay.CanTransitionTo(payment.StatusApproved) {
		return nil, payment.ErrInvalidStatusTransition
	}

	// ========================================
	// 3. 调用网关承认支付(失败则支付单保持READY)
	// ========================================
	if _, err := uc.gateway.Approve(ctx, req.TID, req.PgToken); err != nil {
		return nil, err
	}

	// ========================================
	// 4. 出票 + 状态转换(同一事务)
	// ========================================
	var issued *ticket.Ticket
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		issued, err = uc.ticketSvc.IssueTicket(txCtx, pay.UserID, pay.EventID, pay.ID, pay.OriginalAmount)
		if err != nil {
			return err
		}

		if err := pay.Approve(); err != nil {
			return err
		}
		return uc.paymentRepo.Update(txCtx, pay)
	})
	if err != nil {
		return nil, err
	}

	if metrics.PaymentsApprovedTotal != nil {
		metrics.IncCounter(metrics.PaymentsApprovedTotal)
	}
	publishLifecycleEvent(uc.publisher, RoutingKeyPaymentApproved, pay)

	return &ApprovePaymentResponse{
		PaymentID:      pay.ID,
		PartnerOrderID: pay.PartnerOrderID,
		TicketID:       issued.ID,
		Amount:         pay.DiscountedAmount,
		Status:         pay.Status.String(),
	}, nil
}
