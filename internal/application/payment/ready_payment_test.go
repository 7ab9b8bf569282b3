package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/ticketflow/internal/domain/coupon"
	"github.com/xiebiao/ticketflow/internal/domain/event"
	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
	"github.com/xiebiao/ticketflow/internal/domain/stock"
	"github.com/xiebiao/ticketflow/internal/domain/user"
)

// TestReadyPayment_CouponAndPoints 券+积分叠加的完整发起链路
func TestReadyPayment_CouponAndPoints(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	couponID := env.seedCoupon(50, 10, 1, 3000, false, false)

	resp, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		CouponID:    ptrUint(couponID),
		PointAmount: ptrInt64(5000),
	})
	require.NoError(t, err)

	// 金额不变量:30000 - 3000 - 5000 = 22000
	assert.Equal(t, int64(30000), resp.OriginalAmount)
	assert.Equal(t, int64(22000), resp.DiscountedAmount)
	assert.NotEmpty(t, resp.PartnerOrderID)
	assert.NotEmpty(t, resp.TID)
	assert.NotEmpty(t, resp.RedirectURL)

	// 支付单落库且为READY
	pay := env.w.payments[resp.PaymentID]
	require.NotNil(t, pay)
	assert.Equal(t, payment.StatusReady, pay.Status)
	assert.Equal(t, resp.TID, pay.TID)
	assert.Equal(t, int64(3000), pay.CouponDiscount)
	assert.Equal(t, int64(5000), pay.PointAmount)

	// 券已标记使用,积分已扣,库存已减
	assert.True(t, env.w.userCoupons[50].IsUsed)
	assert.Equal(t, int64(3000), env.w.points[1].Amount)
	assert.Equal(t, 9, env.w.stocks[100].Remaining)

	// 扣减流水恰好一条
	require.Len(t, env.w.histories, 1)
	assert.Equal(t, point.HistoryTypeDeduct, env.w.histories[0].Type)
	assert.Equal(t, int64(5000), env.w.histories[0].Amount)

	// 生命周期事件已发布
	assert.Equal(t, []string{RoutingKeyPaymentReady}, env.publisher.published)
}

// TestReadyPayment_NoDiscount 不使用任何折扣
func TestReadyPayment_NoDiscount(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(15000, 3)

	resp, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:  1,
		EventID: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), resp.DiscountedAmount)
	assert.Equal(t, 2, env.w.stocks[100].Remaining)
	assert.Empty(t, env.w.histories)
}

// TestReadyPayment_GatewayFailureRollsBack 网关失败时本地零痕迹
// 券未标记、积分未扣、库存未减、支付单不存在
func TestReadyPayment_GatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	couponID := env.seedCoupon(50, 10, 1, 3000, false, false)
	env.gateway.readyErr = errors.New("gateway unreachable")

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		CouponID:    ptrUint(couponID),
		PointAmount: ptrInt64(5000),
	})
	require.Error(t, err)

	assert.Equal(t, 1, env.gateway.readyCalls)
	assert.False(t, env.w.userCoupons[50].IsUsed)
	assert.Equal(t, int64(8000), env.w.points[1].Amount)
	assert.Equal(t, 10, env.w.stocks[100].Remaining)
	assert.Empty(t, env.w.payments)
	assert.Empty(t, env.w.histories)
	assert.Empty(t, env.publisher.published)
}

// TestReadyPayment_UsedCouponRejectedBeforePoints 券校验失败时不触碰积分
func TestReadyPayment_UsedCouponRejectedBeforePoints(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	couponID := env.seedCoupon(50, 10, 1, 3000, true, false) // 已使用

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		CouponID:    ptrUint(couponID),
		PointAmount: ptrInt64(5000),
	})
	assert.ErrorIs(t, err, coupon.ErrCouponAlreadyUsed)

	assert.Equal(t, int64(8000), env.w.points[1].Amount)
	assert.Empty(t, env.w.histories)
	assert.Equal(t, 0, env.gateway.readyCalls)
}

// TestReadyPayment_ExpiredCoupon 过期券拒绝
func TestReadyPayment_ExpiredCoupon(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	couponID := env.seedCoupon(50, 10, 1, 3000, false, true)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:   1,
		EventID:  100,
		CouponID: ptrUint(couponID),
	})
	assert.ErrorIs(t, err, coupon.ErrCouponInvalid)
}

// TestReadyPayment_SoldOut 售罄时预检直接拒绝,不走网关
func TestReadyPayment_SoldOut(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 0)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:  1,
		EventID: 100,
	})
	assert.ErrorIs(t, err, stock.ErrOutOfStock)
	assert.Equal(t, 0, env.gateway.readyCalls)
}

// TestReadyPayment_OutsideRecruitmentPeriod 报名期外拒绝支付
func TestReadyPayment_OutsideRecruitmentPeriod(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	// 把报名窗口挪到过去
	evt := env.w.events[100]
	evt.RecruitmentStartAt = evt.RecruitmentStartAt.Add(-48 * time.Hour)
	evt.RecruitmentFinishAt = evt.RecruitmentFinishAt.Add(-48 * time.Hour)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:  1,
		EventID: 100,
	})
	assert.ErrorIs(t, err, event.ErrNotInRecruitmentPeriod)
	assert.Equal(t, 10, env.w.stocks[100].Remaining)
}

// TestReadyPayment_OverDiscount 折扣叠加导致实付为负时上抛而不是钳到0
func TestReadyPayment_OverDiscount(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(5000, 10)
	env.seedPoints(1, 8000)
	couponID := env.seedCoupon(50, 10, 1, 3000, false, false)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		CouponID:    ptrUint(couponID),
		PointAmount: ptrInt64(4000), // 5000 - 3000 - 4000 = -2000
	})
	assert.ErrorIs(t, err, payment.ErrNegativeAmount)

	// 全部回滚
	assert.False(t, env.w.userCoupons[50].IsUsed)
	assert.Equal(t, int64(8000), env.w.points[1].Amount)
	assert.Equal(t, 10, env.w.stocks[100].Remaining)
	assert.Empty(t, env.w.payments)
}

// TestReadyPayment_InsufficientPoints 积分余额不足
func TestReadyPayment_InsufficientPoints(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 1000)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		PointAmount: ptrInt64(5000),
	})
	assert.ErrorIs(t, err, point.ErrInsufficientPoints)
	assert.Equal(t, int64(1000), env.w.points[1].Amount)
}

// TestReadyPayment_NegativePoints 负数积分直接拒绝
func TestReadyPayment_NegativePoints(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		PointAmount: ptrInt64(-100),
	})
	assert.ErrorIs(t, err, point.ErrNegativePointAmount)
}

// TestReadyPayment_UnknownUserOrEvent 用户/活动不存在
func TestReadyPayment_UnknownUserOrEvent(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)

	_, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{UserID: 999, EventID: 100})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = env.ready.Execute(context.Background(), &ReadyPaymentRequest{UserID: 1, EventID: 999})
	assert.ErrorIs(t, err, event.ErrEventNotFound)
}
