package integration

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 支付模块集成测试
//
// 测试场景覆盖:
// 1. 健康检查
// 2. 认证边界(无Token/坏Token)
// 3. 参数校验
// 4. 发起支付完整链路(需要预置活动数据)
// 5. 回调幂等(重复approve)

// TestPing 健康检查
func TestPing(t *testing.T) {
	RequireIntegration(t)

	resp := GetJSON(t, "http://localhost:8080/ping")
	assert.Equal(t, 0, resp.Code)
}

// TestReadyPayment_AuthBoundary 发起支付的认证边界
func TestReadyPayment_AuthBoundary(t *testing.T) {
	RequireIntegration(t)

	body := map[string]interface{}{"event_id": TestEventID()}

	t.Run("无Token被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/payments/ready", body, "")
		assert.Equal(t, 40100, resp.Code)
	})

	t.Run("坏Token被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/payments/ready", body, "not-a-jwt")
		assert.Equal(t, 40101, resp.Code)
	})
}

// TestReadyPayment_Validation 参数校验
func TestReadyPayment_Validation(t *testing.T) {
	RequireIntegration(t)
	token := SignTestToken(t, TestUserID())

	t.Run("缺少event_id", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/payments/ready", map[string]interface{}{}, token)
		assert.Equal(t, 40900, resp.Code)
	})

	t.Run("负数积分被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/payments/ready", map[string]interface{}{
			"event_id":     TestEventID(),
			"point_amount": -100,
		}, token)
		assert.Equal(t, 40014, resp.Code, "应返回积分金额为负错误: %s", resp.Message)
	})
}

// TestPaymentFlow 发起→承认→取消的完整链路
// 需要预置:报名期内且有库存的活动(TICKETFLOW_TEST_EVENT_ID)、
// 网关mock(approve/cancel直接成功)
func TestPaymentFlow(t *testing.T) {
	RequireIntegration(t)
	token := SignTestToken(t, TestUserID())

	// 1. 发起支付
	resp := PostJSON(t, BaseURL+"/payments/ready", map[string]interface{}{
		"event_id": TestEventID(),
	}, token)
	require.Equal(t, 0, resp.Code, "发起支付失败: %s", resp.Message)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.True(t, strings.HasPrefix(ready.PartnerOrderID, "PAY"))
	require.NotEmpty(t, ready.TID)
	require.NotEmpty(t, ready.RedirectURL)
	t.Logf("✓ 发起成功 payment_id=%d tid=%s", ready.PaymentID, ready.TID)

	// 2. 承认回调(模拟网关)
	resp = PostJSON(t, BaseURL+"/payments/callback/approve", map[string]interface{}{
		"tid":      ready.TID,
		"pg_token": "itest-pg-token",
	}, "")
	require.Equal(t, 0, resp.Code, "承认回调失败: %s", resp.Message)

	// 3. 重复承认回调被幂等守卫拦截
	resp = PostJSON(t, BaseURL+"/payments/callback/approve", map[string]interface{}{
		"tid":      ready.TID,
		"pg_token": "itest-pg-token",
	}, "")
	assert.Equal(t, 40017, resp.Code, "重复回调应被拦截: %s", resp.Message)

	// 4. 取消支付(退款)
	resp = PostJSON(t, BaseURL+"/payments/callback/cancel", map[string]interface{}{
		"tid": ready.TID,
	}, "")
	require.Equal(t, 0, resp.Code, "取消支付失败: %s", resp.Message)
	t.Logf("✓ 完整链路通过 tid=%s", ready.TID)
}

// TestApproveCallback_UnknownTID 未知交易号的回调
func TestApproveCallback_UnknownTID(t *testing.T) {
	RequireIntegration(t)

	resp := PostJSON(t, BaseURL+"/payments/callback/approve", map[string]interface{}{
		"tid":      "T-NOT-EXIST",
		"pg_token": "itest-pg-token",
	}, "")
	assert.Equal(t, 40406, resp.Code, "应返回支付单不存在: %s", resp.Message)
}
