package coupon

import (
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// 优惠券领域错误定义
var (
	// ErrCouponNotFound 优惠券不存在
	ErrCouponNotFound = apperrors.New(apperrors.ErrCodeCouponNotFound, "优惠券不存在")

	// ErrCouponInvalid 优惠券不可用(不存在、已过期或已删除)
	ErrCouponInvalid = apperrors.New(apperrors.ErrCodeCouponInvalid, "优惠券不可用")

	// ErrCouponAlreadyUsed 优惠券已使用
	ErrCouponAlreadyUsed = apperrors.New(apperrors.ErrCodeCouponAlreadyUsed, "优惠券已使用")
)
