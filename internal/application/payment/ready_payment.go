// Package payment 支付应用层(用例编排)
//
// 应用层职责:
// 1. 编排领域对象完成完整业务流程(库存、折扣、积分、网关)
// 2. 管理事务边界(网关ready调用是事务的提交门)
// 3. 转换DTO(请求/响应与领域实体之间)
// 4. 不包含业务规则(业务规则在领域层)
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/ticketflow/internal/domain/coupon"
	"github.com/xiebiao/ticketflow/internal/domain/event"
	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/internal/domain/user"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// TxManager 事务管理接口
// mysql.TxManager满足该接口;单测中用内存快照实现替换
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadyPaymentUseCase 发起支付用例
type ReadyPaymentUseCase struct {
	userRepo    user.Repository
	eventRepo   event.Repository
	paymentRepo payment.Repository
	couponRepo  coupon.Repository
	stockMgr    stock.Manager
	ledger      point.Ledger
	discounts   payment.DiscountCalculator
	gateway     payment.GatewayClient
	txManager   TxManager
	publisher   EventPublisher
}

// NewReadyPaymentUseCase 创建发起支付用例
func NewReadyPaymentUseCase(
	userRepo user.Repository,
	eventRepo event.Repository,
	paymentRepo payment.Repository,
	couponRepo coupon.Repository,
	stockMgr stock.Manager,
	ledger point.Ledger,
	discounts payment.DiscountCalculator,
	gateway payment.GatewayClient,
	txManager TxManager,
	publisher EventPublisher,
) *ReadyPaymentUseCase {
	return &ReadyPaymentUseCase{
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		paymentRepo: paymentRepo,
		couponRepo:  couponRepo,
		stockMgr:    stockMgr,
		ledger:      ledger,
		discounts:   discounts,
		gateway:     gateway,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// ReadyPaymentRequest 发起支付请求
type ReadyPaymentRequest struct {
	UserID      uint   `json:"user_id"`
	EventID     uint   `json:"event_id" binding:"required"`
	CouponID    *uint  `json:"coupon_id"`    // 可选:优惠券模板ID
	PointAmount *int64 `json:"point_amount"` // 可选:使用的积分金额
}

// ReadyPaymentResponse 发起支付响应
type ReadyPaymentResponse struct {
	PaymentID        uint   `json:"payment_id"`
	PartnerOrderID   string `json:"partner_order_id"`
	TID              string `json:"tid"`
	RedirectURL      string `json:"redirect_url"`
	OriginalAmount   int64  `json:"original_amount"`
	DiscountedAmount int64  `json:"discounted_amount"`
}

// Execute 执行发起支付
// 设计说明(事务边界):
//  1. 步骤2~9全部在一个数据库事务内执行,任何一步失败整体回滚,
//     券未标记、积分未扣、库存未减、支付单不存在
//  2. 网关ready调用是事务内的最后一条语句(提交门):
//     网关失败 → 回滚,本地零痕迹;本地任何一步失败 → 根本走不到网关。
//     唯一的不一致窗口是"网关成功后commit失败",由对账用例兜底
//  3. 库存扣减放在网关调用之前:宁可"扣了库存但网关失败回滚",
//     不可"网关受理了却发现没票"
func (uc *ReadyPaymentUseCase) Execute(ctx context.Context, req *ReadyPaymentRequest) (*ReadyPaymentResponse, error) {
	start := time.Now()
	if metrics.PaymentsInProgress != nil {
		metrics.IncGauge(metrics.PaymentsInProgress)
		defer metrics.DecGauge(metrics.PaymentsInProgress)
	}

	var pay *payment.Payment
	var redirectURL string

	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// ========================================
		// 1. 解析用户与活动
		// ========================================
		u, err := uc.userRepo.FindByID(txCtx, req.UserID)
		if err != nil {
			return err
		}

		evt, err := uc.eventRepo.FindByID(txCtx, req.EventID)
		if err != nil {
			return err
		}

		// ========================================
		// 2. 募集期校验(过早或过晚都拒绝)
		// ========================================
		if evt.IsNotRecruitmentPeriod(time.Now()) {
			return event.ErrNotInRecruitmentPeriod
		}

		// ========================================
		// 3. 库存预检(咨询性:尽早拒绝售罄请求,省掉后续折扣计算)
		// ========================================
		if err := uc.stockMgr.CheckAvailable(txCtx, req.EventID); err != nil {
			if err == stock.ErrOutOfStock && metrics.StockConflictsTotal != nil {
				metrics.IncCounterVec(metrics.StockConflictsTotal,
					map[string]string{"phase": "precheck"})
			}
			return err
		}

		// ========================================
		// 4. 折扣计算(只算不改:先券后积分,固定顺序)
		// ========================================
		discount, err := uc.discounts.Compute(txCtx, req.UserID, evt.Price, req.CouponID, req.PointAmount)
		if err != nil {
			return err
		}

		// ========================================
		// 5. 创建支付单(工厂拦截实付为负)
		// ========================================
		var userCouponID *uint
		if discount.UserCoupon != nil {
			id := discount.UserCoupon.ID
			userCouponID = &id
		}
		pay, err = payment.NewPayment(req.UserID, req.EventID,
			evt.Price, discount.CouponDiscount, discount.PointAmount, userCouponID)
		if err != nil {
			return err
		}
		if err := uc.paymentRepo.Create(txCtx, pay); err != nil {
			return err
		}

		// ========================================
		// 6. 标记优惠券已使用(条件UPDATE,并发重复使用在这里拦截)
		// ========================================
		if discount.UserCoupon != nil {
			if err := uc.couponRepo.MarkUsed(txCtx, discount.UserCoupon.ID); err != nil {
				return err
			}
		}

		// ========================================
		// 7. 扣减积分并记流水(余额不足由条件UPDATE拦截)
		// ========================================
		if discount.PointAmount > 0 {
			if err := uc.ledger.Deduct(txCtx, req.UserID, discount.PointAmount, pay.ID); err != nil {
				return err
			}
		}

		// ========================================
		// 8. 扣减库存(强制复查:预检通过后票仍可能被并发抢走)
		// ========================================
		if err := uc.stockMgr.Decrement(txCtx, req.EventID); err != nil {
			return err
		}

		// ========================================
		// 9. 调用网关发起支付(事务的提交门)
		// ========================================
		result, err := uc.gateway.Ready(txCtx, payment.ReadyOrder{
			PartnerOrderID: pay.PartnerOrderID,
			PartnerUserID:  fmt.Sprintf("%d", u.ID),
			ItemName:       evt.Title,
			TotalAmount:    pay.DiscountedAmount,
			TaxFreeAmount:  0,
		})
		if err != nil {
			return err
		}

		// 回填网关交易号
		pay.AttachTID(result.TID)
		if err := uc.paymentRepo.Update(txCtx, pay); err != nil {
			return err
		}

		redirectURL = result.RedirectURL
		return nil
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	if metrics.PaymentsReadyTotal != nil {
		metrics.IncCounterVec(metrics.PaymentsReadyTotal, map[string]string{"result": result})
		metrics.ObserveHistogram(metrics.PaymentDuration, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	// 事务已提交,发布事件(尽力而为)
	publishLifecycleEvent(uc.publisher, RoutingKeyPaymentReady, pay)

	return &ReadyPaymentResponse{
		PaymentID:        pay.ID,
		PartnerOrderID:   pay.PartnerOrderID,
		TID:              pay.TID,
		RedirectURL:      redirectURL,
		OriginalAmount:   pay.OriginalAmount,
		DiscountedAmount: pay.DiscountedAmount,
	}, nil
}
