package point

import (
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// 积分领域错误定义
var (
	// ErrPointNotFound 积分账户不存在
	ErrPointNotFound = apperrors.New(apperrors.ErrCodePointNotFound, "积分账户不存在")

	// ErrNegativePointAmount 积分金额为负
	ErrNegativePointAmount = apperrors.New(apperrors.ErrCodeNegativePointAmount, "积分使用金额不能为负")

	// ErrInsufficientPoints 积分余额不足
	ErrInsufficientPoints = apperrors.New(apperrors.ErrCodeInsufficientPoints, "积分余额不足")
)
