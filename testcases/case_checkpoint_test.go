package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/travelpilot/agent"
)

// TestCheckpointResume 测试 checkpoint 保存和恢复后继续对话
func TestCheckpointResume(t *testing.T) {
	t.Parallel()
	store := agent.NewMemoryCheckpointStore()
	ctx := agent.WithStateKey(context.Background(), "live-checkpoint")

	s1, _ := NewTestSession(t, "zh", agent.WithCheckpoints(store))
	if _, err := s1.Submit(ctx, "从香港出发去东京"); err != nil {
		t.Fatalf("第一次对话失败: %v", err)
	}
	if err := s1.Checkpoint(ctx); err != nil {
		t.Fatalf("保存 checkpoint 失败: %v", err)
	}

	// 新会话恢复后继续补充信息
	s2, dispatcher := NewTestSession(t, "zh", agent.WithCheckpoints(store))
	ok, err := s2.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("恢复 checkpoint 失败: %v, %v", ok, err)
	}
	reply, err := s2.Submit(ctx, "3个人玩5天，预算两万")
	if err != nil {
		t.Fatalf("恢复后对话失败: %v", err)
	}
	if !reply.Dispatched {
		t.Fatalf("期望发起生成，缺少 %v", reply.Missing)
	}
	waitIdle(t, s2.IsLoading)
	if req := dispatcher.last(); req == nil || req.TravelInfo.Departure == "" {
		t.Errorf("恢复的出发地丢失: %+v", req)
	}
}
