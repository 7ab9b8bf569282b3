package coupon

import (
	"time"
)

// Coupon 优惠券模板(聚合根)
// 设计说明:
// 1. 模板定义折扣规则,UserCoupon是发放给具体用户的实例
// 2. Count是剩余可发放数量,发放由营销服务负责,本服务只读模板
// 3. IsDeleted软删除:已删除的模板不可再使用,但已发放的历史记录保留
type Coupon struct {
	ID             uint
	Code           string    // 券码(业务唯一标识)
	DiscountAmount int64     // 折扣金额(最小货币单位)
	ExpiredAt      time.Time // 过期时间
	Count          int       // 剩余可发放数量
	IsDeleted      bool      // 软删除标记
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpired 模板是否已过期
func (c *Coupon) IsExpired(now time.Time) bool {
	return now.After(c.ExpiredAt)
}

// IsUsable 模板是否可用(未删除且未过期)
func (c *Coupon) IsUsable(now time.Time) bool {
	return !c.IsDeleted && !c.IsExpired(now)
}

// UserCoupon 用户持有的优惠券
// 设计说明:
// 1. 一张UserCoupon至多使用一次,IsUsed是单次使用状态
// 2. DiscountAmount从模板快照而来,通过Coupon字段携带(查询时联表填充)
type UserCoupon struct {
	ID        uint
	UserID    uint // 持有者用户ID
	CouponID  uint // 优惠券模板ID
	IsUsed    bool // 是否已使用
	Coupon    *Coupon
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanApply 判断该券当前能否用于支付
// 校验顺序:已使用 → ErrCouponAlreadyUsed;模板过期/删除 → ErrCouponInvalid
func (uc *UserCoupon) CanApply(now time.Time) error {
	if uc.IsUsed {
		return ErrCouponAlreadyUsed
	}
	if uc.Coupon == nil || !uc.Coupon.IsUsable(now) {
		return ErrCouponInvalid
	}
	return nil
}

// DiscountAmount 该券的折扣金额
func (uc *UserCoupon) DiscountAmount() int64 {
	if uc.Coupon == nil {
		return 0
	}
	return uc.Coupon.DiscountAmount
}
