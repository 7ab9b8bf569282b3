package user

import (
	"context"
)

// Repository 用户仓储接口(依赖倒置:domain层定义,infrastructure层实现)
type Repository interface {
	// FindByID 根据ID查找用户,不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)
}
