package point

import (
	"time"
)

// HistoryType 积分流水类型
type HistoryType int

const (
	HistoryTypeDeduct  HistoryType = 1 // 支付扣减
	HistoryTypeRestore HistoryType = 2 // 取消返还
)

// String 实现Stringer接口(方便日志输出)
func (t HistoryType) String() string {
	switch t {
	case HistoryTypeDeduct:
		return "扣减"
	case HistoryTypeRestore:
		return "返还"
	default:
		return "未知类型"
	}
}

// History 积分流水(追加写,不可修改)
// 设计说明:
// 1. 每次余额变更追加一条,PaymentID关联触发变更的支付单
// 2. 取消支付时按流水返还同等金额,流水是冲正的唯一依据
type History struct {
	ID        uint
	UserID    uint        // 所属用户ID
	PaymentID uint        // 关联支付单ID
	Amount    int64       // 变更金额(始终为正,方向由Type表示)
	Type      HistoryType // 流水类型
	CreatedAt time.Time
}
