package event

import (
	"context"
)

// Repository 活动仓储接口
type Repository interface {
	// FindByID 根据ID查找活动,不存在返回ErrEventNotFound
	FindByID(ctx context.Context, id uint) (*Event, error)
}
