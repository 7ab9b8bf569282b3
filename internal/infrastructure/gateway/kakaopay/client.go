// Package kakaopay 实现KakaoPay风格REST网关的GatewayClient
//
// 防腐层:网关私有的请求/响应格式只存在于本包,
// 编排层只看到domain/payment定义的ReadyOrder/Receipt类型和GatewayError。
package kakaopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/internal/infrastructure/config"
	"github.com/xiebiao/ticketflow/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// Client KakaoPay网关客户端
// 设计说明:
//  1. 所有调用经过熔断器:网关连续失败后快速失败,
//     避免支付请求堆积拖垮服务(事务持有期间等网关超时尤其危险)
//  2. 任何失败(网络/超时/非2xx/熔断)统一包装为ErrCodeGatewayError
type Client struct {
	cid         string
	secretKey   string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
}

// NewClient 创建网关客户端
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Payment.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := circuitbreaker.NewCircuitBreaker("kakaopay", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.L().Warn("支付网关熔断器状态变化",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if metrics.CircuitBreakerState != nil {
			metrics.SetGaugeVec(metrics.CircuitBreakerState,
				map[string]string{"name": name}, float64(to))
		}
	})

	return &Client{
		cid:         cfg.Payment.CID,
		secretKey:   cfg.Payment.SecretKey,
		baseURL:     cfg.Payment.BaseURL,
		callbackURL: cfg.Payment.CallbackBaseURL,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     cb,
	}
}

// Ready 发起支付
func (c *Client) Ready(ctx context.Context, order payment.ReadyOrder) (*payment.ReadyResult, error) {
	req := readyRequest{
		CID:            c.cid,
		PartnerOrderID: order.PartnerOrderID,
		PartnerUserID:  order.PartnerUserID,
		ItemName:       order.ItemName,
		Quantity:       1,
		TotalAmount:    order.TotalAmount,
		TaxFreeAmount:  order.TaxFreeAmount,
		ApprovalURL:    c.callbackURL + "/callback/approve",
		CancelURL:      c.callbackURL + "/callback/cancel",
		FailURL:        c.callbackURL + "/callback/fail",
	}

	var resp readyResponse
	if err := c.call(ctx, "ready", "/v1/payment/ready", req, &resp); err != nil {
		return nil, err
	}

	return &payment.ReadyResult{
		TID:         resp.TID,
		RedirectURL: resp.NextRedirectPCURL,
	}, nil
}

// Approve 承认支付
func (c *Client) Approve(ctx context.Context, tid, pgToken string) (*payment.ApprovalReceipt, error) {
	req := approveRequest{
		CID:     c.cid,
		TID:     tid,
		PgToken: pgToken,
	}

	var resp approveResponse
	if err := c.call(ctx, "approve", "/v1/payment/approve", req, &resp); err != nil {
		return nil, err
	}

	return &payment.ApprovalReceipt{
		TID:            resp.TID,
		PartnerOrderID: resp.PartnerOrderID,
		Amount:         resp.Amount.Total,
		PaymentMethod:  resp.PaymentMethod,
		ApprovedAt:     resp.ApprovedAt,
	}, nil
}

// Cancel 申请退款
func (c *Client) Cancel(ctx context.Context, tid string, cancelAmount, cancelTaxFreeAmount int64) (*payment.CancellationReceipt, error) {
	req := cancelRequest{
		CID:                 c.cid,
		TID:                 tid,
		CancelAmount:        cancelAmount,
		CancelTaxFreeAmount: cancelTaxFreeAmount,
	}

	var resp cancelResponse
	if err := c.call(ctx, "cancel", "/v1/payment/cancel", req, &resp); err != nil {
		return nil, err
	}

	return &payment.CancellationReceipt{
		TID:             resp.TID,
		CanceledAmount:  resp.CanceledAmount.Total,
		CanceledTaxFree: resp.CanceledAmount.TaxFree,
		CanceledAt:      resp.CanceledAt,
	}, nil
}

// call 发起网关调用(熔断 + 指标 + 错误统一包装)
func (c *Client) call(ctx context.Context, op, path string, reqBody, respBody interface{}) error {
	start := time.Now()

	err := c.breaker.Execute(func() error {
		return c.doRequest(ctx, path, reqBody, respBody)
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	if metrics.GatewayRequestsTotal != nil {
		metrics.IncCounterVec(metrics.GatewayRequestsTotal,
			map[string]string{"op": op, "result": result})
		metrics.ObserveHistogramVec(metrics.GatewayDuration,
			map[string]string{"op": op}, time.Since(start).Seconds())
	}

	if err != nil {
		if err == circuitbreaker.ErrOpenState {
			return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "支付网关暂时不可用")
		}
		// doRequest已包装为GatewayError,原样上抛
		return err
	}
	return nil
}

// doRequest 执行一次HTTP请求
func (c *Client) doRequest(ctx context.Context, path string, reqBody, respBody interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "网关请求序列化失败")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "构建网关请求失败")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "SECRET_KEY "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "支付网关调用失败")
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "读取网关响应失败")
	}

	if resp.StatusCode != http.StatusOK {
		// 上游状态/消息带给日志层,对外只暴露"网关错误"类别
		var gwErr errorResponse
		_ = json.Unmarshal(respData, &gwErr)
		return apperrors.WrapWithCode(
			fmt.Errorf("status=%d error_code=%s error_message=%s", resp.StatusCode, gwErr.ErrCode, gwErr.ErrMsg),
			apperrors.ErrCodeGatewayError,
			"支付网关拒绝请求",
		)
	}

	if err := json.Unmarshal(respData, respBody); err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeGatewayError, "解析网关响应失败")
	}
	return nil
}
