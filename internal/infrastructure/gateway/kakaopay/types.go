package kakaopay

// readyRequest 发起支付请求体
type readyRequest struct {
	CID            string `json:"cid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int64  `json:"total_amount"`
	TaxFreeAmount  int64  `json:"tax_free_amount"`
	ApprovalURL    string `json:"approval_url"`
	CancelURL      string `json:"cancel_url"`
	FailURL        string `json:"fail_url"`
}

// readyResponse 发起支付响应体
type readyResponse struct {
	TID                string `json:"tid"`
	NextRedirectPCURL  string `json:"next_redirect_pc_url"`
	NextRedirectAppURL string `json:"next_redirect_app_url"`
	CreatedAt          string `json:"created_at"`
}

// approveRequest 承认支付请求体
type approveRequest struct {
	CID            string `json:"cid"`
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	PgToken        string `json:"pg_token"`
}

// approveResponse 承认支付响应体
type approveResponse struct {
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PaymentMethod  string `json:"payment_method_type"`
	Amount         struct {
		Total   int64 `json:"total"`
		TaxFree int64 `json:"tax_free"`
	} `json:"amount"`
	ApprovedAt string `json:"approved_at"`
}

// cancelRequest 退款请求体
type cancelRequest struct {
	CID                 string `json:"cid"`
	TID                 string `json:"tid"`
	CancelAmount        int64  `json:"cancel_amount"`
	CancelTaxFreeAmount int64  `json:"cancel_tax_free_amount"`
}

// cancelResponse 退款响应体
type cancelResponse struct {
	TID            string `json:"tid"`
	Status         string `json:"status"`
	CanceledAmount struct {
		Total   int64 `json:"total"`
		TaxFree int64 `json:"tax_free"`
	} `json:"canceled_amount"`
	CanceledAt string `json:"canceled_at"`
}

// errorResponse 网关错误响应体
type errorResponse struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	ErrCode string `json:"error_code"`
	ErrMsg  string `json:"error_message"`
}
