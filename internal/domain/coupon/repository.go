package coupon

import (
	"context"
)

// Repository 优惠券仓储接口
type Repository interface {
	// FindUserCoupon 查找用户持有的优惠券(联表填充Coupon模板)
	// (couponID, userID)不匹配时返回ErrCouponInvalid:
	// 用他人的券与用不存在的券对外表现一致,避免泄露券的存在性
	FindUserCoupon(ctx context.Context, couponID, userID uint) (*UserCoupon, error)

	// MarkUsed 原子标记优惠券已使用
	// 实现为条件UPDATE(... SET is_used = 1 WHERE id = ? AND is_used = 0),
	// 并发争用同一张券时恰好一个成功,其余返回ErrCouponAlreadyUsed
	MarkUsed(ctx context.Context, userCouponID uint) error
}
