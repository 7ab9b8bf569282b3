package stock

import (
	"time"
)

// TicketStock 票务库存实体(每个活动一条)
// 设计说明:
//  1. 库存是整个支付链路中竞争最激烈的资源,不变量:0 <= Remaining <= Total
//  2. Remaining只能通过Manager的Decrement/Increment变更,
//     任何读取-修改-写回的两步操作都会在并发下丢失更新
//  3. Total是发售总量,Increment依赖"与Decrement一一配对"的调用方契约,
//     不在这里重新校验上限
type TicketStock struct {
	ID        uint
	EventID   uint // 所属活动ID
	Remaining int  // 剩余库存
	Total     int  // 发售总量
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSoldOut 是否售罄
func (s *TicketStock) IsSoldOut() bool {
	return s.Remaining <= 0
}
