package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// paymentRepository 支付单仓储实现(MySQL)
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付单仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

// Create 创建支付单
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := toPaymentModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			// 业务单号撞车概率极低(时间戳+随机数),由唯一索引兜底
			return apperrors.Wrap(err, "业务单号冲突")
		}
		return apperrors.Wrap(err, "创建支付单失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找支付单
func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	var model PaymentModel
	err := getDB(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付单失败")
	}
	return toPaymentEntity(&model), nil
}

// FindByTID 根据网关交易号查找支付单
func (r *paymentRepository) FindByTID(ctx context.Context, tid string) (*payment.Payment, error) {
	var model PaymentModel
	err := getDB(ctx, r.db).Where("tid = ?", tid).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付单失败")
	}
	return toPaymentEntity(&model), nil
}

// Update 更新支付单
func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := toPaymentModel(p)
	model.ID = p.ID
	model.CreatedAt = p.CreatedAt

	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新支付单失败")
	}

	p.UpdatedAt = model.UpdatedAt
	return nil
}

// ListByStatus 按状态查询支付单(对账任务用)
func (r *paymentRepository) ListByStatus(ctx context.Context, status payment.Status, limit int) ([]*payment.Payment, error) {
	var models []PaymentModel
	err := getDB(ctx, r.db).
		Where("status = ?", int(status)).
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询支付单列表失败")
	}

	payments := make([]*payment.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentEntity(&models[i])
	}
	return payments, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toPaymentModel 领域实体 → GORM模型
// TID为空串时存NULL(唯一索引不约束NULL,受理前的多条支付单可共存)
func toPaymentModel(p *payment.Payment) *PaymentModel {
	var tid *string
	if p.TID != "" {
		t := p.TID
		tid = &t
	}
	return &PaymentModel{
		PartnerOrderID:   p.PartnerOrderID,
		TID:              tid,
		UserID:           p.UserID,
		EventID:          p.EventID,
		OriginalAmount:   p.OriginalAmount,
		DiscountedAmount: p.DiscountedAmount,
		UserCouponID:     p.UserCouponID,
		CouponDiscount:   p.CouponDiscount,
		PointAmount:      p.PointAmount,
		Status:           int(p.Status),
		CompensatedAt:    p.CompensatedAt,
	}
}

// toPaymentEntity GORM模型 → 领域实体
func toPaymentEntity(model *PaymentModel) *payment.Payment {
	tid := ""
	if model.TID != nil {
		tid = *model.TID
	}
	return &payment.Payment{
		ID:               model.ID,
		PartnerOrderID:   model.PartnerOrderID,
		TID:              tid,
		UserID:           model.UserID,
		EventID:          model.EventID,
		OriginalAmount:   model.OriginalAmount,
		DiscountedAmount: model.DiscountedAmount,
		UserCouponID:     model.UserCouponID,
		CouponDiscount:   model.CouponDiscount,
		PointAmount:      model.PointAmount,
		Status:           payment.Status(model.Status),
		CompensatedAt:    model.CompensatedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
