package stock

import (
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrStockNotFound 库存记录不存在
	ErrStockNotFound = apperrors.New(apperrors.ErrCodeStockNotFound, "票务库存不存在")

	// ErrOutOfStock 票已售罄
	ErrOutOfStock = apperrors.New(apperrors.ErrCodeOutOfStock, "票已售罄")
)
