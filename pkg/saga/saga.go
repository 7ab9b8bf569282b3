// Package saga 实现通用的Saga补偿事务框架
//
// 取消支付这类跨系统流程（网关退款 → 积分返还 → 库存回补）
// 无法放进一个数据库事务：网关退款成功后本地步骤失败时，
// 需要按逆序补偿已完成的步骤，保证最终一致性。
//
// 要求：Action和Compensate都必须幂等（网络故障会导致重试）。
package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/pkg/logger"
)

// Step 表示Saga中的一个步骤
// Compensate可以为nil（最后一步通常无需补偿）；
// 补偿操作只能依赖自己Action的结果，不得依赖后续步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作
}

// Saga 表示一个补偿事务
type Saga struct {
	steps    []Step
	executed []Step // 已执行的步骤，失败时逆序补偿
	timeout  time.Duration
}

// NewSaga 创建一个新的Saga事务
//
// 示例：
//
//	s := saga.NewSaga(30 * time.Second)
//	s.AddStep("网关退款", refundViaGateway, nil)
//	s.AddStep("返还积分", restorePoints, deductPointsAgain)
//	s.AddStep("回补库存", increaseStock, decreaseStockAgain)
//	err := s.Execute(ctx)
func NewSaga(timeout time.Duration) *Saga {
	return &Saga{
		steps:   make([]Step, 0),
		timeout: timeout,
	}
}

// AddStep 添加一个步骤（按添加顺序执行，按逆序补偿）
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga事务
// 某步失败或整体超时时，逆序执行已完成步骤的补偿并返回错误。
// Saga保证的是最终一致性：补偿期间数据可能处于中间状态
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		select {
		case <-ctx.Done():
			// 补偿用新Context，避免补偿也被同一个超时取消
			s.compensate(context.Background())
			return fmt.Errorf("saga超时: %w", ctx.Err())
		default:
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.compensate(context.Background())
				return fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// compensate 逆序执行已完成步骤的补偿
// 单个补偿失败不中断后续补偿（尽最大努力），失败记录日志等人工介入
func (s *Saga) compensate(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]

		if step.Compensate != nil {
			if err := step.Compensate(ctx); err != nil {
				logger.L().Error("saga补偿失败，需人工介入",
					zap.String("step", step.Name),
					zap.Error(err),
				)
			}
		}
	}

	s.executed = nil
}
