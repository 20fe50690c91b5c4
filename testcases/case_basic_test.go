package testcases

import (
	"context"
	"testing"
	"time"

	"github.com/tbxark/travelpilot/types"
)

func waitIdle(t *testing.T, isLoading func() bool) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for isLoading() {
		if time.Now().After(deadline) {
			t.Fatal("generation never finished")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// TestBasicConversation 测试多轮补全行程信息
func TestBasicConversation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, dispatcher := NewTestSession(t, "zh")

	// 第一轮：只给出目的地和天数
	reply, err := s.Submit(ctx, "我想去京都玩四天")
	if err != nil {
		t.Fatalf("第一轮对话失败: %v", err)
	}
	if reply.Dispatched {
		t.Fatal("信息不全时不应发起生成")
	}
	slots := s.CurrentSlots()
	if slots.Destination == nil || slots.NumDays == nil || *slots.NumDays != 4 {
		t.Errorf("期望目的地和天数已识别，实际为 %+v", slots)
	}
	t.Logf("第一轮响应: %s", reply.Message)

	// 第二轮：补充剩余信息
	reply, err = s.Submit(ctx, "我们两个人从上海出发，预算一万元")
	if err != nil {
		t.Fatalf("第二轮对话失败: %v", err)
	}
	if !reply.Dispatched {
		t.Fatalf("信息齐全后应发起生成，缺少 %v", reply.Missing)
	}
	waitIdle(t, s.IsLoading)

	req := dispatcher.last()
	if req == nil || req.TravelInfo.NumPeople != 2 || req.TravelInfo.Budget != 10000 {
		t.Errorf("请求内容不符合预期: %+v", req)
	}
	if s.Phase() != types.PhaseIdle {
		t.Errorf("期望阶段为 idle，实际为 %s", s.Phase())
	}
}
