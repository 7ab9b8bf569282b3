package saga

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestSaga_AllStepsSucceed 全部步骤成功时不触发补偿
func TestSaga_AllStepsSucceed(t *testing.T) {
	executed := make([]string, 0)
	compensated := make([]string, 0)

	s := NewSaga(5 * time.Second)
	s.AddStep("退款",
		func(ctx context.Context) error {
			executed = append(executed, "退款")
			return nil
		},
		func(ctx context.Context) error {
			compensated = append(compensated, "退款")
			return nil
		},
	)
	s.AddStep("返还积分",
		func(ctx context.Context) error {
			executed = append(executed, "返还积分")
			return nil
		},
		func(ctx context.Context) error {
			compensated = append(compensated, "返还积分")
			return nil
		},
	)

	if err := s.Execute(context.Background()); err != nil {
		t.Fatalf("期望成功，实际失败: %v", err)
	}
	if len(executed) != 2 {
		t.Errorf("期望执行2步，实际%d步: %v", len(executed), executed)
	}
	if len(compensated) != 0 {
		t.Errorf("成功时不应补偿，实际补偿了: %v", compensated)
	}
}

// TestSaga_FailureTriggersReverseCompensation 中途失败时逆序补偿已完成步骤
func TestSaga_FailureTriggersReverseCompensation(t *testing.T) {
	compensated := make([]string, 0)

	s := NewSaga(5 * time.Second)
	s.AddStep("退款",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "退款")
			return nil
		},
	)
	s.AddStep("返还积分",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "返还积分")
			return nil
		},
	)
	s.AddStep("回补库存",
		func(ctx context.Context) error {
			return errors.New("库存服务不可用")
		},
		nil,
	)

	err := s.Execute(context.Background())
	if err == nil {
		t.Fatal("期望失败，实际成功")
	}

	// 逆序：先补偿"返还积分"，再补偿"退款"
	want := []string{"返还积分", "退款"}
	if len(compensated) != len(want) {
		t.Fatalf("期望补偿%d步，实际%d步: %v", len(want), len(compensated), compensated)
	}
	for i := range want {
		if compensated[i] != want[i] {
			t.Errorf("补偿顺序第%d步期望%s，实际%s", i, want[i], compensated[i])
		}
	}
}

// TestSaga_CompensateFailureDoesNotStop 单个补偿失败不中断后续补偿
func TestSaga_CompensateFailureDoesNotStop(t *testing.T) {
	compensated := make([]string, 0)

	s := NewSaga(5 * time.Second)
	s.AddStep("步骤1",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "步骤1")
			return nil
		},
	)
	s.AddStep("步骤2",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "步骤2")
			return errors.New("补偿失败")
		},
	)
	s.AddStep("步骤3",
		func(ctx context.Context) error {
			return errors.New("执行失败")
		},
		nil,
	)

	if err := s.Execute(context.Background()); err == nil {
		t.Fatal("期望失败，实际成功")
	}

	// 步骤2补偿失败后仍应补偿步骤1
	if len(compensated) != 2 {
		t.Errorf("期望补偿2步，实际%d步: %v", len(compensated), compensated)
	}
}

// TestSaga_Timeout 整体超时触发补偿
func TestSaga_Timeout(t *testing.T) {
	compensated := false

	s := NewSaga(50 * time.Millisecond)
	s.AddStep("慢操作",
		func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
		func(ctx context.Context) error {
			compensated = true
			return nil
		},
	)
	s.AddStep("不应执行",
		func(ctx context.Context) error {
			t.Error("超时后不应执行后续步骤")
			return nil
		},
		nil,
	)

	err := s.Execute(context.Background())
	if err == nil {
		t.Fatal("期望超时失败，实际成功")
	}
	if !compensated {
		t.Error("超时后应补偿已完成的步骤")
	}
}
