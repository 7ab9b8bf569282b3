package ticket

import (
	"context"
	"time"
)

// Service 出票领域服务
// 设计说明:只在支付承认后调用;出票失败视为系统错误上抛,
// 由承认事务整体回滚(支付保持READY等待重试)
type Service interface {
	// IssueTicket 为用户出票
	IssueTicket(ctx context.Context, userID, eventID, paymentID uint, originalAmount int64) (*Ticket, error)
}

// service 出票服务实现
type service struct {
	repo Repository
}

// NewService 创建出票服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// IssueTicket 出票
func (s *service) IssueTicket(ctx context.Context, userID, eventID, paymentID uint, originalAmount int64) (*Ticket, error) {
	t := &Ticket{
		UserID:         userID,
		EventID:        eventID,
		PaymentID:      paymentID,
		OriginalAmount: originalAmount,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
