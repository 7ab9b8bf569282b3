package ticket

import (
	"time"
)

// Ticket 票实体
// 设计说明:
// 1. 支付承认后出票,一笔APPROVED支付对应一张票
// 2. OriginalAmount记录购票时的活动原价(核销对账用)
type Ticket struct {
	ID             uint
	UserID         uint  // 持票用户ID
	EventID        uint  // 活动ID
	PaymentID      uint  // 关联支付单ID
	OriginalAmount int64 // 购票时活动原价快照
	CreatedAt      time.Time
}
