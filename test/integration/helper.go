package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiebiao/ticketflow/pkg/jwt"
)

// 集成测试辅助工具
//
// 运行前提:
// 1. 服务已在本机8080端口启动(依赖MySQL/Redis/网关mock)
// 2. 设置 TICKETFLOW_INTEGRATION=1 启用(默认跳过,避免CI误跑)
// 3. 测试用户/活动数据通过环境变量指定(见下方TestUserID/TestEventID)

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// RequireIntegration 未开启集成测试时跳过
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("TICKETFLOW_INTEGRATION") != "1" {
		t.Skip("跳过集成测试(设置TICKETFLOW_INTEGRATION=1启用)")
	}
}

// TestUserID 测试用户ID(需预先在users表中存在)
func TestUserID() uint {
	if v := os.Getenv("TICKETFLOW_TEST_USER_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(id)
		}
	}
	return 1
}

// TestEventID 测试活动ID(需预先在events表中存在且在报名期内、有库存)
func TestEventID() uint {
	if v := os.Getenv("TICKETFLOW_TEST_EVENT_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(id)
		}
	}
	return 100
}

// SignTestToken 为测试用户签发Token
// 签名密钥与服务共享(环境变量TICKETFLOW_JWT_SECRET,默认开发密钥)
func SignTestToken(t *testing.T, userID uint) string {
	t.Helper()

	secret := os.Getenv("TICKETFLOW_JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key-change-in-production"
	}

	manager := jwt.NewManager(secret, time.Hour)
	token, err := manager.GenerateToken(userID, "itest@example.com")
	require.NoError(t, err, "签发测试Token失败")
	return token
}

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ReadyData 发起支付响应数据
type ReadyData struct {
	PaymentID        uint   `json:"payment_id"`
	PartnerOrderID   string `json:"partner_order_id"`
	TID              string `json:"tid"`
	RedirectURL      string `json:"redirect_url"`
	OriginalAmount   int64  `json:"original_amount"`
	DiscountedAmount int64  `json:"discounted_amount"`
}

// PostJSON 发送POST请求(token为空时不带Authorization头)
func PostJSON(t *testing.T, url string, body interface{}, token string) *Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err, "序列化请求体失败")

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err, "构建请求失败")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "请求失败(服务是否已启动?)")
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应失败")

	var result Response
	require.NoError(t, json.Unmarshal(respData, &result), "解析响应失败: %s", string(respData))
	return &result
}

// GetJSON 发送GET请求
func GetJSON(t *testing.T, url string) *Response {
	t.Helper()

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Get(url)
	require.NoError(t, err, "请求失败(服务是否已启动?)")
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应失败")

	var result Response
	require.NoError(t, json.Unmarshal(respData, &result), "解析响应失败: %s", string(respData))
	return &result
}
