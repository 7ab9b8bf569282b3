package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/point"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// pointHistoryRepository 积分流水仓储实现(MySQL,追加写)
type pointHistoryRepository struct {
	db *gorm.DB
}

// NewPointHistoryRepository 创建积分流水仓储
func NewPointHistoryRepository(db *gorm.DB) point.HistoryRepository {
	return &pointHistoryRepository{db: db}
}

// Append 追加一条流水
func (r *pointHistoryRepository) Append(ctx context.Context, h *point.History) error {
	model := &PointHistoryModel{
		UserID:    h.UserID,
		PaymentID: h.PaymentID,
		Amount:    h.Amount,
		Type:      int(h.Type),
		CreatedAt: h.CreatedAt,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入积分流水失败")
	}

	h.ID = model.ID
	return nil
}

// ListByPaymentID 查询某支付单的流水
func (r *pointHistoryRepository) ListByPaymentID(ctx context.Context, paymentID uint) ([]*point.History, error) {
	var models []PointHistoryModel
	err := getDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询积分流水失败")
	}

	histories := make([]*point.History, len(models))
	for i, m := range models {
		histories[i] = &point.History{
			ID:        m.ID,
			UserID:    m.UserID,
			PaymentID: m.PaymentID,
			Amount:    m.Amount,
			Type:      point.HistoryType(m.Type),
			CreatedAt: m.CreatedAt,
		}
	}
	return histories, nil
}
