package stock

import (
	"context"
)

// Repository 库存仓储接口
// 设计说明:
//  1. Decrement/Increment必须实现为单条原子条件UPDATE
//     (UPDATE ticket_stocks SET remaining = remaining + delta WHERE remaining + delta >= 0)
//     依靠数据库行锁保证并发安全,绝不允许先查后改
//  2. 通过context传递事务,参与调用方的原子提交单元
type Repository interface {
	// FindByEventID 根据活动ID查找库存,不存在返回ErrStockNotFound
	FindByEventID(ctx context.Context, eventID uint) (*TicketStock, error)

	// UpdateRemaining 原子变更剩余库存(delta为负表示扣减)
	// 变更会导致库存为负时不执行,返回ErrOutOfStock
	UpdateRemaining(ctx context.Context, eventID uint, delta int) error
}
