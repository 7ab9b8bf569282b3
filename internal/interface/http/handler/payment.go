package handler

import (
	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/ticketflow/internal/application/payment"
	"github.com/xiebiao/ticketflow/internal/interface/http/dto"
	"github.com/xiebiao/ticketflow/internal/interface/http/middleware"
	"github.com/xiebiao/ticketflow/pkg/response"
)

// PaymentHandler 支付HTTP处理器
type PaymentHandler struct {
	readyUseCase     *apppayment.ReadyPaymentUseCase
	approveUseCase   *apppayment.ApprovePaymentUseCase
	cancelUseCase    *apppayment.CancelPaymentUseCase
	failUseCase      *apppayment.FailPaymentUseCase
	reconcileUseCase *apppayment.ReconcilePaymentUseCase
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(
	readyUseCase *apppayment.ReadyPaymentUseCase,
	approveUseCase *apppayment.ApprovePaymentUseCase,
	cancelUseCase *apppayment.CancelPaymentUseCase,
	failUseCase *apppayment.FailPaymentUseCase,
	reconcileUseCase *apppayment.ReconcilePaymentUseCase,
) *PaymentHandler {
	return &PaymentHandler{
		readyUseCase:     readyUseCase,
		approveUseCase:   approveUseCase,
		cancelUseCase:    cancelUseCase,
		failUseCase:      failUseCase,
		reconcileUseCase: reconcileUseCase,
	}
}

// Ready 发起支付
// @Summary      发起支付
// @Description  用户购票发起支付(需要登录),券/积分折扣与库存扣减在同一事务内完成
// @Tags         支付模块
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ReadyPaymentRequest true "支付信息"
// @Success      200 {object} response.Response{data=dto.ReadyPaymentResponse} "发起成功,引导用户跳转redirect_url"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "活动不存在"
// @Failure      40010 {object} response.Response "不在报名期内"
// @Failure      40011 {object} response.Response "票已售罄"
// @Router       /payments/ready [post]
func (h *PaymentHandler) Ready(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.ReadyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	// 2. 获取当前登录用户ID
	userID := middleware.MustGetUserID(c)

	// 3. 调用应用层用例
	result, err := h.readyUseCase.Execute(c.Request.Context(), &apppayment.ReadyPaymentRequest{
		UserID:      userID,
		EventID:     req.EventID,
		CouponID:    req.CouponID,
		PointAmount: req.PointAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 4. 构建HTTP响应
	response.Success(c, &dto.ReadyPaymentResponse{
		PaymentID:            result.PaymentID,
		PartnerOrderID:       result.PartnerOrderID,
		TID:                  result.TID,
		RedirectURL:          result.RedirectURL,
		OriginalAmount:       result.OriginalAmount,
		DiscountedAmount:     result.DiscountedAmount,
		DiscountedAmountYuan: dto.FormatAmountYuan(result.DiscountedAmount),
	})
}

// ApproveCallback 承认回调
// @Summary      支付承认回调
// @Description  网关在用户完成支付后回调,完成出票与状态转换(回调接口,无需登录)
// @Tags         支付模块
// @Accept       json
// @Produce      json
// @Param        request body dto.ApproveCallbackRequest true "回调参数"
// @Success      200 {object} response.Response{data=dto.ApproveCallbackResponse} "承认成功"
// @Failure      40017 {object} response.Response "重复的回调"
// @Failure      40406 {object} response.Response "支付单不存在"
// @Router       /payments/callback/approve [post]
func (h *PaymentHandler) ApproveCallback(c *gin.Context) {
	var req dto.ApproveCallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.approveUseCase.Execute(c.Request.Context(), &apppayment.ApprovePaymentRequest{
		TID:     req.TID,
		PgToken: req.PgToken,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.ApproveCallbackResponse{
		PaymentID:      result.PaymentID,
		PartnerOrderID: result.PartnerOrderID,
		TicketID:       result.TicketID,
		Amount:         result.Amount,
		Status:         result.Status,
	})
}

// Cancel 取消支付(退款)
// @Summary      取消支付
// @Description  取消已承认的支付:网关退款、积分返还、库存回补原子生效
// @Tags         支付模块
// @Accept       json
// @Produce      json
// @Param        request body dto.CancelPaymentRequest true "取消参数"
// @Success      200 {object} response.Response{data=dto.CancelPaymentResponse} "取消成功"
// @Failure      40002 {object} response.Response "支付状态不允许取消"
// @Failure      40016 {object} response.Response "已过可退款期限"
// @Router       /payments/callback/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req dto.CancelPaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), &apppayment.CancelPaymentRequest{
		TID: req.TID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CancelPaymentResponse{
		PaymentID:      result.PaymentID,
		PartnerOrderID: result.PartnerOrderID,
		CanceledAmount: result.CanceledAmount,
		RestoredPoints: result.RestoredPoints,
		Status:         result.Status,
	})
}

// FailCallback 失败回调
// @Summary      支付失败回调
// @Description  网关上报支付失败,只转状态不做补偿(补偿由对账接口异步完成)
// @Tags         支付模块
// @Accept       json
// @Produce      json
// @Param        request body dto.FailCallbackRequest true "回调参数"
// @Success      200 {object} response.Response{data=dto.FailCallbackResponse} "标记成功"
// @Router       /payments/callback/fail [post]
func (h *PaymentHandler) FailCallback(c *gin.Context) {
	var req dto.FailCallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.failUseCase.Execute(c.Request.Context(), &apppayment.FailPaymentRequest{
		TID: req.TID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.FailCallbackResponse{
		PaymentID:      result.PaymentID,
		PartnerOrderID: result.PartnerOrderID,
		Status:         result.Status,
	})
}

// Reconcile 对账补偿
// @Summary      对账补偿
// @Description  扫描FAILED支付单,释放其占用的库存和积分(运维接口,需要登录)
// @Tags         支付模块
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ReconcileRequest false "扫描上限"
// @Success      200 {object} response.Response{data=dto.ReconcileResponse} "补偿结果"
// @Router       /payments/reconcile [post]
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.reconcileUseCase.Execute(c.Request.Context(), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.ReconcileResponse{
		Scanned:      result.Scanned,
		Compensated:  result.Compensated,
		Skipped:      result.Skipped,
		FailedToHeal: result.FailedToHeal,
	})
}
