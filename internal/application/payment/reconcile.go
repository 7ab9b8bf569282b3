package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/saga"
)

// ReconcilePaymentUseCase 支付对账补偿用例
// 设计说明:
//  1. fail回调只转状态不做补偿,FAILED支付单占用的库存和积分
//     由本用例异步释放(运维定时任务或手工触发)
//  2. 补偿跨两个资源(库存、积分),用Saga逆序补偿保证最终一致:
//     库存回补成功而积分返还失败时,把库存重新扣回去,
//     保持"要么全补、要么全不补",失败的支付单留待下一轮重试
//  3. 幂等依据是支付单上的CompensatedAt标记;
//     积分流水做第二道防线(标记写失败后重入时防止重复返还)
type ReconcilePaymentUseCase struct {
	paymentRepo payment.Repository
	stockMgr    stock.Manager
	ledger      point.Ledger
	historyRepo point.HistoryRepository
}

// NewReconcilePaymentUseCase 创建对账补偿用例
func NewReconcilePaymentUseCase(
	paymentRepo payment.Repository,
	stockMgr stock.Manager,
	ledger point.Ledger,
	historyRepo point.HistoryRepository,
) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{
		paymentRepo: paymentRepo,
		stockMgr:    stockMgr,
		ledger:      ledger,
		historyRepo: historyRepo,
	}
}

// ReconcileResponse 对账补偿结果
type ReconcileResponse struct {
	Scanned      int `json:"scanned"`        // 扫描的FAILED支付单数
	Compensated  int `json:"compensated"`    // 本轮完成补偿的支付单数
	Skipped      int `json:"skipped"`        // 已补偿过而跳过的支付单数
	FailedToHeal int `json:"failed_to_heal"` // 补偿失败留待下轮的支付单数
}

// Execute 扫描FAILED支付单并逐单补偿
func (uc *ReconcilePaymentUseCase) Execute(ctx context.Context, limit int) (*ReconcileResponse, error) {
	if limit <= 0 {
		limit = 100
	}

	// ========================================
	// 1. 捞出待补偿的FAILED支付单
	// ========================================
	payments, err := uc.paymentRepo.ListByStatus(ctx, payment.StatusFailed, limit)
	if err != nil {
		return nil, err
	}

	resp := &ReconcileResponse{Scanned: len(payments)}
	for _, pay := range payments {
		done, err := uc.compensateOne(ctx, pay)
		switch {
		case err != nil:
			resp.FailedToHeal++
			logger.L().Error("支付单补偿失败,留待下轮",
				zap.Uint("payment_id", pay.ID),
				zap.Error(err),
			)
		case done:
			resp.Compensated++
		default:
			resp.Skipped++
		}
	}
	return resp, nil
}

// compensateOne 补偿单笔FAILED支付单
// 返回(true, nil)表示本轮完成补偿,(false, nil)表示此前已补偿过
func (uc *ReconcilePaymentUseCase) compensateOne(ctx context.Context, pay *payment.Payment) (bool, error) {
	// ========================================
	// 2. 幂等检查
	// ========================================
	if pay.CompensatedAt != nil {
		return false, nil
	}
	// 第二道防线:已有返还流水说明上一轮补偿做完但标记没写上
	if pay.UsedPoints() {
		histories, err := uc.historyRepo.ListByPaymentID(ctx, pay.ID)
		if err != nil {
			return false, err
		}
		for _, h := range histories {
			if h.Type == point.HistoryTypeRestore {
				pay.MarkCompensated()
				return false, uc.paymentRepo.Update(ctx, pay)
			}
		}
	}

	// ========================================
	// 3. Saga补偿:库存回补 → 积分返还,逆序回滚
	// ========================================
	s := saga.NewSaga(10 * time.Second)
	s.AddStep("回补库存",
		func(ctx context.Context) error {
			return uc.stockMgr.Increment(ctx, pay.EventID)
		},
		func(ctx context.Context) error {
			return uc.stockMgr.Decrement(ctx, pay.EventID)
		},
	)
	if pay.UsedPoints() {
		s.AddStep("返还积分",
			func(ctx context.Context) error {
				return uc.ledger.Restore(ctx, pay.UserID, pay.PointAmount, pay.ID)
			},
			nil,
		)
	}

	if err := s.Execute(ctx); err != nil {
		return false, err
	}

	// ========================================
	// 4. 写补偿标记(写失败时靠流水防线避免重复返还)
	// ========================================
	pay.MarkCompensated()
	if err := uc.paymentRepo.Update(ctx, pay); err != nil {
		return false, err
	}

	logger.L().Info("支付单补偿完成",
		zap.Uint("payment_id", pay.ID),
		zap.Int64("restored_points", pay.PointAmount),
	)
	return true, nil
}
