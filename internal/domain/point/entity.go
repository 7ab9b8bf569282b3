package point

import (
	"time"
)

// Point 积分账户(每个用户一条)
// 设计说明:
//  1. 不变量:Amount永不为负,扣减导致负数时操作失败
//  2. Amount只能通过Ledger的Deduct/Restore变更,
//     每次扣减/返还都伴随一条PointHistory流水(审计与冲正依据)
type Point struct {
	ID        uint
	UserID    uint  // 账户所属用户ID
	Amount    int64 // 积分余额
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanDeduct 判断余额是否足够扣减
func (p *Point) CanDeduct(amount int64) bool {
	return p.Amount >= amount
}
