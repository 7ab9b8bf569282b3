package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/domain/point"
)

// readyOne 发起一笔支付并返回响应(测试辅助)
func readyOne(t *testing.T, env *testEnv, pointAmount *int64) *ReadyPaymentResponse {
	t.Helper()
	resp, err := env.ready.Execute(context.Background(), &ReadyPaymentRequest{
		UserID:      1,
		EventID:     100,
		PointAmount: pointAmount,
	})
	require.NoError(t, err)
	return resp
}

// TestApprovePayment_IssuesTicket 承认支付:出票+状态转换
func TestApprovePayment_IssuesTicket(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	ready := readyOne(t, env, nil)

	resp, err := env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID:     ready.TID,
		PgToken: "pg-token-abc",
	})
	require.NoError(t, err)

	assert.Equal(t, ready.PaymentID, resp.PaymentID)
	assert.NotZero(t, resp.TicketID)
	assert.Equal(t, payment.StatusApproved, env.w.payments[ready.PaymentID].Status)

	// 票与支付单一一对应
	issued := env.w.tickets[ready.PaymentID]
	require.NotNil(t, issued)
	assert.Equal(t, uint(1), issued.UserID)
	assert.Equal(t, int64(30000), issued.OriginalAmount)

	assert.Equal(t, []string{RoutingKeyPaymentReady, RoutingKeyPaymentApproved}, env.publisher.published)
}

// TestApprovePayment_DuplicateCallback 重复回调被守卫拦截
func TestApprovePayment_DuplicateCallback(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	ready := readyOne(t, env, nil)

	req := &ApprovePaymentRequest{TID: ready.TID, PgToken: "pg-token-abc"}
	_, err := env.approve.Execute(context.Background(), req)
	require.NoError(t, err)

	_, err = env.approve.Execute(context.Background(), req)
	assert.ErrorIs(t, err, payment.ErrDuplicateCallback)

	// 网关只被调用一次,票只有一张
	assert.Equal(t, 1, env.gateway.approveCalls)
	assert.Len(t, env.w.tickets, 1)
}

// TestApprovePayment_GatewayFailureStaysReady 网关承认失败:支付单保持READY,
// 守卫释放后网关重试可以成功
func TestApprovePayment_GatewayFailureStaysReady(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	ready := readyOne(t, env, nil)

	env.gateway.approveErr = errors.New("approve timeout")
	req := &ApprovePaymentRequest{TID: ready.TID, PgToken: "pg-token-abc"}
	_, err := env.approve.Execute(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, payment.StatusReady, env.w.payments[ready.PaymentID].Status)
	assert.Empty(t, env.w.tickets)

	// 重试成功
	env.gateway.approveErr = nil
	_, err = env.approve.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusApproved, env.w.payments[ready.PaymentID].Status)
}

// TestApprovePayment_UnknownTID 未知交易号
func TestApprovePayment_UnknownTID(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)

	_, err := env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID:     "T999999",
		PgToken: "pg-token-abc",
	})
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

// TestCancelPayment_RestoresPointsAndStock 取消支付:退款+积分返还+库存回补
func TestCancelPayment_RestoresPointsAndStock(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	ready := readyOne(t, env, ptrInt64(5000))

	_, err := env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID: ready.TID, PgToken: "pg-token-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), env.w.points[1].Amount)
	assert.Equal(t, 9, env.w.stocks[100].Remaining)

	resp, err := env.cancel.Execute(context.Background(), &CancelPaymentRequest{TID: ready.TID})
	require.NoError(t, err)

	assert.Equal(t, int64(25000), resp.CanceledAmount)
	assert.Equal(t, int64(5000), resp.RestoredPoints)
	assert.Equal(t, payment.StatusCanceled, env.w.payments[ready.PaymentID].Status)

	// 积分余额守恒,库存回到原位
	assert.Equal(t, int64(8000), env.w.points[1].Amount)
	assert.Equal(t, 10, env.w.stocks[100].Remaining)

	// 流水:一条扣减+一条返还
	require.Len(t, env.w.histories, 2)
	assert.Equal(t, point.HistoryTypeDeduct, env.w.histories[0].Type)
	assert.Equal(t, point.HistoryTypeRestore, env.w.histories[1].Type)

	assert.Equal(t, 1, env.gateway.cancelCalls)
}

// TestCancelPayment_ReadyCannotCancel READY状态不允许取消
func TestCancelPayment_ReadyCannotCancel(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	ready := readyOne(t, env, nil)

	_, err := env.cancel.Execute(context.Background(), &CancelPaymentRequest{TID: ready.TID})
	assert.ErrorIs(t, err, payment.ErrInvalidStatusTransition)
	assert.Equal(t, 0, env.gateway.cancelCalls)
}

// TestCancelPayment_AfterRecruitmentFinish 报名结束后不允许退款
func TestCancelPayment_AfterRecruitmentFinish(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	ready := readyOne(t, env, nil)
	_, err := env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID: ready.TID, PgToken: "pg-token-abc",
	})
	require.NoError(t, err)

	// 报名期结束
	env.w.events[100].RecruitmentFinishAt = time.Now().Add(-time.Minute)

	_, err = env.cancel.Execute(context.Background(), &CancelPaymentRequest{TID: ready.TID})
	assert.ErrorIs(t, err, payment.ErrCancellationPeriodExpired)
	assert.Equal(t, payment.StatusApproved, env.w.payments[ready.PaymentID].Status)
	assert.Equal(t, 0, env.gateway.cancelCalls)
}

// TestCancelPayment_GatewayFailureRollsBack 退款失败时本地零改动
func TestCancelPayment_GatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	ready := readyOne(t, env, ptrInt64(5000))
	_, err := env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID: ready.TID, PgToken: "pg-token-abc",
	})
	require.NoError(t, err)

	env.gateway.cancelErr = errors.New("refund rejected")
	_, err = env.cancel.Execute(context.Background(), &CancelPaymentRequest{TID: ready.TID})
	require.Error(t, err)

	assert.Equal(t, payment.StatusApproved, env.w.payments[ready.PaymentID].Status)
	assert.Equal(t, int64(3000), env.w.points[1].Amount)
	assert.Equal(t, 9, env.w.stocks[100].Remaining)
}

// TestFailPayment_MarksFailedWithoutCompensation fail回调只转状态,不做补偿
func TestFailPayment_MarksFailedWithoutCompensation(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	ready := readyOne(t, env, ptrInt64(5000))

	resp, err := env.fail.Execute(context.Background(), &FailPaymentRequest{TID: ready.TID})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, env.w.payments[ready.PaymentID].Status)
	assert.Equal(t, "已失败", resp.Status)

	// 补偿留给对账:库存和积分保持扣减后的状态
	assert.Equal(t, 9, env.w.stocks[100].Remaining)
	assert.Equal(t, int64(3000), env.w.points[1].Amount)

	// FAILED是终态,承认回调被状态机拒绝
	_, err = env.approve.Execute(context.Background(), &ApprovePaymentRequest{
		TID: ready.TID, PgToken: "pg-token-abc",
	})
	assert.ErrorIs(t, err, payment.ErrInvalidStatusTransition)
}

// TestReconcile_CompensatesFailedPayments 对账:释放FAILED支付单占用的库存和积分
func TestReconcile_CompensatesFailedPayments(t *testing.T) {
	env := newTestEnv()
	env.seedBasics(30000, 10)
	env.seedPoints(1, 8000)
	ready := readyOne(t, env, ptrInt64(5000))
	_, err := env.fail.Execute(context.Background(), &FailPaymentRequest{TID: ready.TID})
	require.NoError(t, err)

	resp, err := env.reconcile.Execute(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Scanned)
	assert.Equal(t, 1, resp.Compensated)

	assert.Equal(t, 10, env.w.stocks[100].Remaining)
	assert.Equal(t, int64(8000), env.w.points[1].Amount)

	// 幂等:第二轮跳过,余额不再变化
	resp, err = env.reconcile.Execute(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 0, resp.Compensated)
	assert.Equal(t, int64(8000), env.w.points[1].Amount)
}
