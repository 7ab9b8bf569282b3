package ticket

import (
	"context"
)

// Repository 票仓储接口
type Repository interface {
	// Create 创建票(回填自增ID)
	Create(ctx context.Context, ticket *Ticket) error

	// FindByPaymentID 根据支付单ID查找票
	FindByPaymentID(ctx context.Context, paymentID uint) (*Ticket, error)
}
