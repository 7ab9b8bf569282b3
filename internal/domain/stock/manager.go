package stock

import (
	"context"
)

// Manager 库存领域服务
// 设计说明:
//  1. CheckAvailable是咨询性预检,用于在支付链路早期快速拒绝售罄请求,
//     不提供任何保留语义——两次调用之间库存可能被其他请求抢走
//  2. Decrement是提交时的强制复查:即使预检通过,扣减仍可能因并发竞争
//     返回ErrOutOfStock,调用方必须处理
//  3. Increment只在取消支付时调用,与之前的Decrement一一配对
type Manager interface {
	// CheckAvailable 预检库存,售罄返回ErrOutOfStock
	CheckAvailable(ctx context.Context, eventID uint) error

	// Decrement 原子扣减1张库存,售罄返回ErrOutOfStock
	Decrement(ctx context.Context, eventID uint) error

	// Increment 原子回补1张库存(取消支付时调用)
	Increment(ctx context.Context, eventID uint) error
}

// manager 库存领域服务实现
type manager struct {
	repo Repository
}

// NewManager 创建库存领域服务
func NewManager(repo Repository) Manager {
	return &manager{repo: repo}
}

// CheckAvailable 预检库存
func (m *manager) CheckAvailable(ctx context.Context, eventID uint) error {
	s, err := m.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if s.IsSoldOut() {
		return ErrOutOfStock
	}
	return nil
}

// Decrement 扣减库存
// 原子性由Repository的单条条件UPDATE保证:
// 并发扣减最后一张票时,恰好一个请求成功,其余返回ErrOutOfStock
func (m *manager) Decrement(ctx context.Context, eventID uint) error {
	return m.repo.UpdateRemaining(ctx, eventID, -1)
}

// Increment 回补库存
func (m *manager) Increment(ctx context.Context, eventID uint) error {
	return m.repo.UpdateRemaining(ctx, eventID, +1)
}
