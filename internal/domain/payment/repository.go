package payment

import (
	"context"
)

// Repository 支付单仓储接口
type Repository interface {
	// Create 创建支付单(回填自增ID)
	Create(ctx context.Context, payment *Payment) error

	// FindByID 根据ID查找支付单
	FindByID(ctx context.Context, id uint) (*Payment, error)

	// FindByTID 根据网关交易号查找支付单
	// 网关回调(approve/cancel/fail)只携带TID,这是回调入口的唯一索引
	FindByTID(ctx context.Context, tid string) (*Payment, error)

	// Update 更新支付单(状态转换、TID回填)
	Update(ctx context.Context, payment *Payment) error

	// ListByStatus 按状态查询支付单(对账任务用,限量)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Payment, error)
}
