package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(timeout time.Duration, failures uint32) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})
}

// TestCircuitBreaker_ClosedState 关闭状态下请求正常通过
func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb := newTestBreaker(30*time.Second, 5)

	for i := 0; i < 10; i++ {
		err := cb.Execute(func() error {
			return nil
		})
		if err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}

	counts := cb.Counts()
	if counts.TotalSuccesses != 10 {
		t.Errorf("期望成功10次，实际%d次", counts.TotalSuccesses)
	}
}

// TestCircuitBreaker_OpenState 连续失败触发熔断后请求快速失败
func TestCircuitBreaker_OpenState(t *testing.T) {
	cb := newTestBreaker(30*time.Second, 5)

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error {
			return errors.New("gateway unavailable")
		})
	}

	if cb.State() != StateOpen {
		t.Errorf("期望状态为OPEN，实际%s", cb.State())
	}

	// 熔断中不应调用实际函数
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	if err != ErrOpenState {
		t.Errorf("期望返回ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断器打开时不应该调用实际函数")
	}
}

// TestCircuitBreaker_HalfOpenRecovery 超时后半开探测成功则恢复
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(100*time.Millisecond, 3)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error {
			return errors.New("fail")
		})
	}

	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	time.Sleep(150 * time.Millisecond)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("半开状态探测请求期望成功，实际%v", err)
	}
	if !called {
		t.Error("半开状态应该允许请求通过")
	}
	if cb.State() != StateClosed {
		t.Errorf("期望状态转为CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenToOpen 半开探测失败立即转回熔断
func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb := newTestBreaker(100*time.Millisecond, 3)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error {
			return errors.New("fail")
		})
	}

	time.Sleep(150 * time.Millisecond)

	_ = cb.Execute(func() error {
		return errors.New("still fail")
	})

	if cb.State() != StateOpen {
		t.Errorf("期望状态转回OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_StateChangeCallback 状态变化按顺序触发回调
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	stateChanges := make([]string, 0)

	cb := newTestBreaker(100*time.Millisecond, 3)
	cb.SetStateChangeCallback(func(name string, from State, to State) {
		stateChanges = append(stateChanges, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error {
			return errors.New("fail")
		})
	}

	time.Sleep(150 * time.Millisecond)
	_ = cb.Execute(func() error {
		return nil
	})

	expected := []string{
		"CLOSED->OPEN",
		"OPEN->HALF_OPEN",
		"HALF_OPEN->CLOSED",
	}

	if len(stateChanges) != len(expected) {
		t.Fatalf("期望%d次状态变化，实际%d次: %v", len(expected), len(stateChanges), stateChanges)
	}
	for i, want := range expected {
		if stateChanges[i] != want {
			t.Errorf("第%d次状态变化期望%s，实际%s", i, want, stateChanges[i])
		}
	}
}

// TestCircuitBreaker_FailureRate 基于失败率的熔断策略
func TestCircuitBreaker_FailureRate(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests: 3,
		Interval:    1 * time.Hour, // 长窗口，避免测试中被重置
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.Requests >= 10 && counts.FailureRate() > 0.5
		},
	})

	// 10次请求：4成功6失败，失败率60%
	for i := 0; i < 10; i++ {
		index := i
		_ = cb.Execute(func() error {
			if index < 4 {
				return nil
			}
			return errors.New("fail")
		})
	}

	if cb.State() != StateOpen {
		t.Errorf("期望状态为OPEN（失败率超过50%%），实际%s", cb.State())
	}
}

// fakeGateway 模拟不稳定的支付网关
type fakeGateway struct {
	failCount int
	callCount int
}

func (g *fakeGateway) Ready() error {
	g.callCount++
	if g.callCount <= g.failCount {
		return errors.New("payment gateway unavailable")
	}
	return nil
}

// TestCircuitBreaker_GatewayScenario 网关宕机期间快速失败，恢复后自动闭合
func TestCircuitBreaker_GatewayScenario(t *testing.T) {
	gw := &fakeGateway{failCount: 5}

	cb := NewCircuitBreaker("kakaopay", Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     200 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	for i := 1; i <= 10; i++ {
		_ = cb.Execute(func() error {
			return gw.Ready()
		})
	}

	// 前5次失败触发熔断，6-10次不再打到网关
	if gw.callCount != 5 {
		t.Errorf("期望实际调用5次，实际调用%d次", gw.callCount)
	}

	time.Sleep(250 * time.Millisecond)

	err := cb.Execute(func() error {
		return gw.Ready()
	})
	if err != nil {
		t.Errorf("半开状态下期望成功，实际失败: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("期望状态恢复为CLOSED，实际%s", cb.State())
	}
}
