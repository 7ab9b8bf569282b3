package user

import (
	"time"
)

// User 用户实体
// 设计说明:
// 1. 用户注册/登录由账号服务负责,本服务只做用户存在性校验
// 2. 支付单通过UserID关联用户,不持有User对象引用(跨聚合只传ID)
type User struct {
	ID        uint
	Email     string // 邮箱(业务唯一标识)
	Nickname  string // 昵称
	CreatedAt time.Time
	UpdatedAt time.Time
}
