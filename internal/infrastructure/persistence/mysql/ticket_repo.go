package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/ticket"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// ticketRepository 票仓储实现(MySQL)
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository 创建票仓储
func NewTicketRepository(db *gorm.DB) ticket.Repository {
	return &ticketRepository{db: db}
}

// Create 创建票
func (r *ticketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	model := &TicketModel{
		UserID:         t.UserID,
		EventID:        t.EventID,
		PaymentID:      t.PaymentID,
		OriginalAmount: t.OriginalAmount,
		CreatedAt:      t.CreatedAt,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		// PaymentID唯一索引:一笔支付至多一张票,重复出票视为系统错误
		return apperrors.Wrap(err, "出票失败")
	}

	t.ID = model.ID
	return nil
}

// FindByPaymentID 根据支付单ID查找票
func (r *ticketRepository) FindByPaymentID(ctx context.Context, paymentID uint) (*ticket.Ticket, error) {
	var model TicketModel
	err := getDB(ctx, r.db).Where("payment_id = ?", paymentID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "票不存在")
		}
		return nil, apperrors.Wrap(err, "查询票失败")
	}

	return &ticket.Ticket{
		ID:             model.ID,
		UserID:         model.UserID,
		EventID:        model.EventID,
		PaymentID:      model.PaymentID,
		OriginalAmount: model.OriginalAmount,
		CreatedAt:      model.CreatedAt,
	}, nil
}
