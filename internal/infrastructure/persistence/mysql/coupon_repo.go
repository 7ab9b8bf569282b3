package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ticketflow/internal/domain/coupon"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// couponRepository 优惠券仓储实现(MySQL)
type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) coupon.Repository {
	return &couponRepository{db: db}
}

// FindUserCoupon 查找用户持有的优惠券(联查模板)
// (couponID, userID)不匹配统一返回ErrCouponInvalid,不泄露券的存在性
func (r *couponRepository) FindUserCoupon(ctx context.Context, couponID, userID uint) (*coupon.UserCoupon, error) {
	db := getDB(ctx, r.db)

	var ucModel UserCouponModel
	err := db.Where("coupon_id = ? AND user_id = ?", couponID, userID).First(&ucModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, coupon.ErrCouponInvalid
		}
		return nil, apperrors.Wrap(err, "查询用户优惠券失败")
	}

	var cModel CouponModel
	err = db.First(&cModel, ucModel.CouponID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 模板被物理删除,视为券不可用
			return nil, coupon.ErrCouponInvalid
		}
		return nil, apperrors.Wrap(err, "查询优惠券模板失败")
	}

	return &coupon.UserCoupon{
		ID:       ucModel.ID,
		UserID:   ucModel.UserID,
		CouponID: ucModel.CouponID,
		IsUsed:   ucModel.IsUsed,
		Coupon: &coupon.Coupon{
			ID:             cModel.ID,
			Code:           cModel.Code,
			DiscountAmount: cModel.DiscountAmount,
			ExpiredAt:      cModel.ExpiredAt,
			Count:          cModel.Count,
			IsDeleted:      cModel.IsDeleted,
			CreatedAt:      cModel.CreatedAt,
			UpdatedAt:      cModel.UpdatedAt,
		},
		CreatedAt: ucModel.CreatedAt,
		UpdatedAt: ucModel.UpdatedAt,
	}, nil
}

// MarkUsed 原子标记优惠券已使用
// UPDATE user_coupons SET is_used = 1 WHERE id = ? AND is_used = 0
// 并发争用同一张券时恰好一个UPDATE命中,其余RowsAffected == 0
func (r *couponRepository) MarkUsed(ctx context.Context, userCouponID uint) error {
	db := getDB(ctx, r.db)
	result := db.Model(&UserCouponModel{}).
		Where("id = ? AND is_used = ?", userCouponID, false).
		Update("is_used", true)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "标记优惠券使用失败")
	}

	if result.RowsAffected == 0 {
		var model UserCouponModel
		if err := db.First(&model, userCouponID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return coupon.ErrCouponInvalid
			}
			return apperrors.Wrap(err, "查询用户优惠券失败")
		}
		return coupon.ErrCouponAlreadyUsed
	}

	return nil
}
