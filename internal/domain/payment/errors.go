package payment

import (
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// 支付领域错误定义
var (
	// ErrPaymentNotFound 支付单不存在
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "支付单不存在")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidStatusTransition, "支付状态不允许此操作")

	// ErrNegativeAmount 实付金额为负(折扣叠加超过原价)
	ErrNegativeAmount = apperrors.New(apperrors.ErrCodeNegativeAmount, "折扣金额超过订单原价")

	// ErrCancellationPeriodExpired 已过可退款期限
	ErrCancellationPeriodExpired = apperrors.New(apperrors.ErrCodeCancellationPeriodExpire, "活动报名已结束,不支持退款")

	// ErrDuplicateCallback 重复的网关回调
	ErrDuplicateCallback = apperrors.New(apperrors.ErrCodeDuplicateCallback, "重复的支付回调")
)
