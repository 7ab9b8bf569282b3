package payment

import (
	"context"
	"time"

	"github.com/xiebiao/ticketflow/internal/domain/coupon"
	"github.com/xiebiao/ticketflow/internal/domain/point"
)

// DiscountResult 折扣计算结果
// CouponDiscount/PointAmount是快照值,直接落入支付单
type DiscountResult struct {
	DiscountedAmount int64              // 实付金额(可能为负,由支付单工厂拦截)
	CouponDiscount   int64              // 优惠券折扣金额
	PointAmount      int64              // 积分使用金额
	UserCoupon       *coupon.UserCoupon // 解析出的用户优惠券(未使用券时为nil)
}

// DiscountCalculator 折扣计算领域服务
// 设计说明:
//  1. 折扣顺序固定:先减优惠券,再减积分
//  2. 只做校验和计算,不产生任何状态变更
//     (标记券已使用、扣减积分由编排层在同一事务中执行)
//  3. 结果为负时不在这里拦截:过度折扣是配置/运营错误,
//     由下游支付单的金额不变量统一上抛
type DiscountCalculator interface {
	// Compute 计算实付金额
	// couponID/pointAmount为nil表示未使用对应折扣
	Compute(ctx context.Context, userID uint, basePrice int64, couponID *uint, pointAmount *int64) (*DiscountResult, error)
}

// discountCalculator 折扣计算实现
type discountCalculator struct {
	couponRepo coupon.Repository
	pointRepo  point.Repository
}

// NewDiscountCalculator 创建折扣计算服务
func NewDiscountCalculator(couponRepo coupon.Repository, pointRepo point.Repository) DiscountCalculator {
	return &discountCalculator{
		couponRepo: couponRepo,
		pointRepo:  pointRepo,
	}
}

// Compute 计算实付金额
func (c *discountCalculator) Compute(ctx context.Context, userID uint, basePrice int64, couponID *uint, pointAmount *int64) (*DiscountResult, error) {
	result := &DiscountResult{}

	// 1. 优惠券校验(先于积分:券校验失败时不应触碰积分)
	if couponID != nil {
		userCoupon, err := c.couponRepo.FindUserCoupon(ctx, *couponID, userID)
		if err != nil {
			return nil, err
		}
		if err := userCoupon.CanApply(time.Now()); err != nil {
			return nil, err
		}
		result.UserCoupon = userCoupon
		result.CouponDiscount = userCoupon.DiscountAmount()
	}

	// 2. 积分校验
	if pointAmount != nil {
		amount := *pointAmount
		if amount < 0 {
			return nil, point.ErrNegativePointAmount
		}
		if amount > 0 {
			balance, err := c.pointRepo.FindByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !balance.CanDeduct(amount) {
				return nil, point.ErrInsufficientPoints
			}
			result.PointAmount = amount
		}
	}

	// 3. 固定顺序:券先扣,积分后扣
	result.DiscountedAmount = basePrice - result.CouponDiscount - result.PointAmount
	return result, nil
}
