package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// CallbackGuard 网关回调幂等守卫
// 设计说明:
//  1. 支付网关的回调(approve/cancel/fail)可能因网络重试重复送达,
//     用SETNX抢占 cb:{op}:{tid} 键,抢到的请求继续处理,
//     没抢到的直接返回ErrDuplicateCallback
//  2. TTL兜底:处理方崩溃未释放时,键过期后回调可重新处理
//  3. 处理失败时主动Release,让网关的下一次重试能够进来
type CallbackGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCallbackGuard 创建回调守卫
func NewCallbackGuard(client *redis.Client) *CallbackGuard {
	return &CallbackGuard{
		client: client,
		// 正常回调处理在秒级完成,10分钟足够覆盖网关的重试窗口
		ttl: 10 * time.Minute,
	}
}

func (g *CallbackGuard) key(op, tid string) string {
	return fmt.Sprintf("cb:%s:%s", op, tid)
}

// Acquire 抢占回调处理权
// 返回ErrDuplicateCallback表示同一回调正在或已被处理
func (g *CallbackGuard) Acquire(ctx context.Context, op, tid string) error {
	ok, err := g.client.SetNX(ctx, g.key(op, tid), 1, g.ttl).Result()
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeRedisError, "回调守卫不可用")
	}
	if !ok {
		return payment.ErrDuplicateCallback
	}
	return nil
}

// Release 释放处理权(处理失败时调用,允许网关重试)
func (g *CallbackGuard) Release(ctx context.Context, op, tid string) error {
	if err := g.client.Del(ctx, g.key(op, tid)).Err(); err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrCodeRedisError, "释放回调守卫失败")
	}
	return nil
}
