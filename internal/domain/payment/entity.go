package payment

import (
	"time"
)

// Status 支付状态
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 定义为类型别名,便于添加方法
type Status int

const (
	StatusReady    Status = 1 // 已发起(等待网关回调)
	StatusApproved Status = 2 // 已承认(支付完成,票已出)
	StatusCanceled Status = 3 // 已取消(已退款)
	StatusFailed   Status = 4 // 已失败(网关上报失败)
)

// String 实现Stringer接口(方便日志输出)
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "已发起"
	case StatusApproved:
		return "已承认"
	case StatusCanceled:
		return "已取消"
	case StatusFailed:
		return "已失败"
	default:
		return "未知状态"
	}
}

// Payment 支付单实体(聚合根)
// 设计说明:
//  1. 一次购票尝试对应一条支付单
//  2. PartnerOrderID是我方生成的业务单号;TID是网关受理后分配的交易号,
//     受理前为空字符串
//  3. 金额字段是创建时的值快照(copy-not-reference):
//     之后优惠券模板改价或积分余额变化都不影响已结算支付单的账目
type Payment struct {
	ID               uint
	PartnerOrderID   string     // 业务单号(我方生成,全局唯一)
	TID              string     // 网关交易号(ready受理后回填)
	UserID           uint       // 购买用户ID
	EventID          uint       // 活动ID
	OriginalAmount   int64      // 原价(下单时活动票价快照)
	DiscountedAmount int64      // 实付金额
	UserCouponID     *uint      // 使用的优惠券(可选)
	CouponDiscount   int64      // 优惠券折扣金额快照
	PointAmount      int64      // 使用的积分金额
	Status           Status     // 支付状态
	CompensatedAt    *time.Time // 对账补偿完成时间(仅FAILED支付单,nil表示未补偿)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPayment 创建支付单(工厂方法)
// 业务规则(金额不变量):
//
//	DiscountedAmount = OriginalAmount - CouponDiscount - PointAmount 且 >= 0
//
// 折扣叠加导致实付为负属于配置/运营错误,必须上抛而不是悄悄钳到0
func NewPayment(userID, eventID uint, originalAmount, couponDiscount, pointAmount int64, userCouponID *uint) (*Payment, error) {
	discounted := originalAmount - couponDiscount - pointAmount
	if discounted < 0 {
		return nil, ErrNegativeAmount
	}

	now := time.Now()
	return &Payment{
		PartnerOrderID:   GeneratePartnerOrderID(),
		UserID:           userID,
		EventID:          eventID,
		OriginalAmount:   originalAmount,
		DiscountedAmount: discounted,
		UserCouponID:     userCouponID,
		CouponDiscount:   couponDiscount,
		PointAmount:      pointAmount,
		Status:           StatusReady,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AttachTID 回填网关交易号(ready受理成功后调用)
func (p *Payment) AttachTID(tid string) {
	p.TID = tid
	p.UpdatedAt = time.Now()
}

// UsedPoints 是否使用了积分
func (p *Payment) UsedPoints() bool {
	return p.PointAmount > 0
}

// UsedCoupon 是否使用了优惠券
func (p *Payment) UsedCoupon() bool {
	return p.UserCouponID != nil
}

// CanTransitionTo 检查是否可以转换到目标状态
// 状态机:READY → {APPROVED, FAILED};APPROVED → CANCELED;
// FAILED和CANCELED是终态
func (p *Payment) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusReady:    {StatusApproved, StatusFailed},
		StatusApproved: {StatusCanceled},
		StatusCanceled: {},
		StatusFailed:   {},
	}

	allowedTargets, exists := transitions[p.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
func (p *Payment) TransitionTo(target Status) error {
	if !p.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	return nil
}

// Approve 承认支付(领域行为)
func (p *Payment) Approve() error {
	return p.TransitionTo(StatusApproved)
}

// Cancel 取消支付(领域行为)
func (p *Payment) Cancel() error {
	return p.TransitionTo(StatusCanceled)
}

// Fail 标记支付失败(领域行为)
func (p *Payment) Fail() error {
	return p.TransitionTo(StatusFailed)
}

// MarkCompensated 记录对账补偿完成时间(幂等依据)
func (p *Payment) MarkCompensated() {
	now := time.Now()
	p.CompensatedAt = &now
	p.UpdatedAt = now
}

// IsOwnedBy 检查支付单是否属于指定用户
func (p *Payment) IsOwnedBy(userID uint) bool {
	return p.UserID == userID
}
