package payment

import (
	"context"
)

// ReadyOrder 发起支付时传给网关的订单上下文
type ReadyOrder struct {
	PartnerOrderID string // 业务单号
	PartnerUserID  string // 用户标识(传给网关做风控)
	ItemName       string // 商品名(活动名称)
	TotalAmount    int64  // 实付金额
	TaxFreeAmount  int64  // 免税金额
}

// ReadyResult 网关受理结果
type ReadyResult struct {
	TID         string // 网关交易号
	RedirectURL string // 用户完成支付的跳转地址
}

// ApprovalReceipt 支付承认回执
type ApprovalReceipt struct {
	TID            string
	PartnerOrderID string
	Amount         int64  // 实际结算金额
	PaymentMethod  string // 支付方式(网关透传)
	ApprovedAt     string // 网关侧承认时间(透传原始格式)
}

// CancellationReceipt 退款回执
type CancellationReceipt struct {
	TID             string
	CanceledAmount  int64  // 退款金额
	CanceledTaxFree int64  // 退款中的免税部分
	CanceledAt      string // 网关侧退款时间(透传原始格式)
}

// GatewayClient 支付网关客户端(防腐层接口)
// 设计说明:
//  1. domain层只定义契约,具体网关协议(KakaoPay等)在infrastructure层实现
//  2. 所有失败统一包装为ErrCodeGatewayError的AppError,
//     携带上游状态/消息供日志排查;编排层只区分成功/失败,
//     不解读网关私有错误码
//  3. 超时由实现方控制(配置payment.timeout),超时同样表现为网关错误
type GatewayClient interface {
	// Ready 发起支付,网关受理后返回交易号和跳转地址
	Ready(ctx context.Context, order ReadyOrder) (*ReadyResult, error)

	// Approve 承认支付(用户完成支付后网关回调携带pgToken)
	Approve(ctx context.Context, tid, pgToken string) (*ApprovalReceipt, error)

	// Cancel 申请退款
	Cancel(ctx context.Context, tid string, cancelAmount, cancelTaxFreeAmount int64) (*CancellationReceipt, error)
}
