package point

import (
	"context"
	"time"
)

// Ledger 积分领域服务
// 设计说明:
//  1. 余额守恒:balance_after = balance_before - Σ(扣减) + Σ(返还)
//  2. Deduct校验顺序:负数 → ErrNegativePointAmount;超余额 → ErrInsufficientPoints
//  3. Restore只在取消支付时调用,金额取自当初扣减的流水;
//     没有内建去重,调用方保证每笔支付至多返还一次
type Ledger interface {
	// Deduct 扣减积分并追加流水
	Deduct(ctx context.Context, userID uint, amount int64, paymentID uint) error

	// Restore 返还积分并追加流水(取消支付时调用)
	Restore(ctx context.Context, userID uint, amount int64, paymentID uint) error
}

// ledger 积分领域服务实现
type ledger struct {
	repo        Repository
	historyRepo HistoryRepository
}

// NewLedger 创建积分领域服务
func NewLedger(repo Repository, historyRepo HistoryRepository) Ledger {
	return &ledger{
		repo:        repo,
		historyRepo: historyRepo,
	}
}

// Deduct 扣减积分
// 扣减和流水必须在同一事务中(由调用方通过context传入事务)
func (l *ledger) Deduct(ctx context.Context, userID uint, amount int64, paymentID uint) error {
	// 1. 金额校验
	if amount < 0 {
		return ErrNegativePointAmount
	}
	if amount == 0 {
		return nil
	}

	// 2. 原子扣减(余额不足由条件UPDATE拦截)
	if err := l.repo.UpdateAmount(ctx, userID, -amount); err != nil {
		return err
	}

	// 3. 追加流水
	return l.historyRepo.Append(ctx, &History{
		UserID:    userID,
		PaymentID: paymentID,
		Amount:    amount,
		Type:      HistoryTypeDeduct,
		CreatedAt: time.Now(),
	})
}

// Restore 返还积分
func (l *ledger) Restore(ctx context.Context, userID uint, amount int64, paymentID uint) error {
	if amount < 0 {
		return ErrNegativePointAmount
	}
	if amount == 0 {
		return nil
	}

	if err := l.repo.UpdateAmount(ctx, userID, +amount); err != nil {
		return err
	}

	return l.historyRepo.Append(ctx, &History{
		UserID:    userID,
		PaymentID: paymentID,
		Amount:    amount,
		Type:      HistoryTypeRestore,
		CreatedAt: time.Now(),
	})
}
