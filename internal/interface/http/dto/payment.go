package dto

import "fmt"

// ReadyPaymentRequest HTTP发起支付请求
// validator tag说明:
// - required: 必填字段
// - min/max: 数值范围校验
type ReadyPaymentRequest struct {
	EventID     uint   `json:"event_id" binding:"required" example:"100"`
	CouponID    *uint  `json:"coupon_id" binding:"omitempty" example:"10"`                   // 可选:优惠券模板ID
	PointAmount *int64 `json:"point_amount" binding:"omitempty,max=10000000" example:"5000"` // 可选:使用的积分金额
}

// ReadyPaymentResponse HTTP发起支付响应
type ReadyPaymentResponse struct {
	PaymentID            uint   `json:"payment_id" example:"1"`
	PartnerOrderID       string `json:"partner_order_id" example:"PAY1699248000123456"`
	TID                  string `json:"tid" example:"T1234567890"`
	RedirectURL          string `json:"redirect_url" example:"https://pay.example.com/redirect"`
	OriginalAmount       int64  `json:"original_amount" example:"30000"`
	DiscountedAmount     int64  `json:"discounted_amount" example:"22000"`
	DiscountedAmountYuan string `json:"discounted_amount_yuan" example:"220.00"` // 实付金额(元),方便前端显示
}

// ApproveCallbackRequest HTTP承认回调请求(网关送达)
type ApproveCallbackRequest struct {
	TID     string `json:"tid" form:"tid" binding:"required" example:"T1234567890"`
	PgToken string `json:"pg_token" form:"pg_token" binding:"required" example:"pg-token-abc"`
}

// ApproveCallbackResponse HTTP承认回调响应
type ApproveCallbackResponse struct {
	PaymentID      uint   `json:"payment_id" example:"1"`
	PartnerOrderID string `json:"partner_order_id" example:"PAY1699248000123456"`
	TicketID       uint   `json:"ticket_id" example:"1"`
	Amount         int64  `json:"amount" example:"22000"`
	Status         string `json:"status" example:"已承认"`
}

// CancelPaymentRequest HTTP取消支付请求
type CancelPaymentRequest struct {
	TID string `json:"tid" form:"tid" binding:"required" example:"T1234567890"`
}

// CancelPaymentResponse HTTP取消支付响应
type CancelPaymentResponse struct {
	PaymentID      uint   `json:"payment_id" example:"1"`
	PartnerOrderID string `json:"partner_order_id" example:"PAY1699248000123456"`
	CanceledAmount int64  `json:"canceled_amount" example:"22000"`
	RestoredPoints int64  `json:"restored_points" example:"5000"`
	Status         string `json:"status" example:"已取消"`
}

// FailCallbackRequest HTTP失败回调请求(网关送达)
type FailCallbackRequest struct {
	TID string `json:"tid" form:"tid" binding:"required" example:"T1234567890"`
}

// FailCallbackResponse HTTP失败回调响应
type FailCallbackResponse struct {
	PaymentID      uint   `json:"payment_id" example:"1"`
	PartnerOrderID string `json:"partner_order_id" example:"PAY1699248000123456"`
	Status         string `json:"status" example:"已失败"`
}

// ReconcileRequest HTTP对账补偿请求(运维接口)
type ReconcileRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=1000" example:"100"`
}

// ReconcileResponse HTTP对账补偿响应
type ReconcileResponse struct {
	Scanned      int `json:"scanned" example:"3"`
	Compensated  int `json:"compensated" example:"2"`
	Skipped      int `json:"skipped" example:"1"`
	FailedToHeal int `json:"failed_to_heal" example:"0"`
}

// FormatAmountYuan 格式化金额(分→元)
// 例如:22000分 → "220.00"
func FormatAmountYuan(amountFen int64) string {
	yuan := float64(amountFen) / 100.0
	return fmt.Sprintf("%.2f", yuan)
}
