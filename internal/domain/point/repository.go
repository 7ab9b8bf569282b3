package point

import (
	"context"
)

// Repository 积分仓储接口
// 设计说明:UpdateAmount必须实现为单条原子条件UPDATE,
// 同一用户的并发扣减依靠数据库行锁串行化,绝不允许先查后改
type Repository interface {
	// FindByUserID 根据用户ID查找积分账户,不存在返回ErrPointNotFound
	FindByUserID(ctx context.Context, userID uint) (*Point, error)

	// UpdateAmount 原子变更余额(delta为负表示扣减)
	// 变更会导致余额为负时不执行,返回ErrInsufficientPoints
	UpdateAmount(ctx context.Context, userID uint, delta int64) error
}

// HistoryRepository 积分流水仓储接口(追加写)
type HistoryRepository interface {
	// Append 追加一条流水
	Append(ctx context.Context, history *History) error

	// ListByPaymentID 查询某支付单的流水(对账用)
	ListByPaymentID(ctx context.Context, paymentID uint) ([]*History, error)
}
