package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tbxark/travelpilot/agent"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/progress"
	"github.com/tbxark/travelpilot/slot"
	"github.com/tbxark/travelpilot/types"
)

func newTestService(t *testing.T) (*httptest.Server, *itinerary.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(newServer(time.Millisecond).routes())
	t.Cleanup(srv.Close)
	client, err := itinerary.NewClient(srv.URL+"/api/", itinerary.WithToken("alice"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, client
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newSession(t *testing.T, client *itinerary.Client, grace time.Duration, opts ...agent.Option) *agent.Session {
	t.Helper()
	rules, err := slot.NewRuleExtractor("en")
	if err != nil {
		t.Fatal(err)
	}
	stream := progress.NewClient(client, progress.WithGraceWindow(grace))
	s := agent.NewSession(rules, client, stream, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const endToEndGrace = 300 * time.Millisecond

// waitGrace waits for wantEvents progress entries ending in success and
// checks that loading survives the grace window after the server has
// closed the stream.
func waitGrace(t *testing.T, s *agent.Session, wantEvents int) {
	t.Helper()
	waitFor(t, "success event", func() bool {
		events := s.ProgressEvents()
		return len(events) >= wantEvents && events[len(events)-1].Type == types.EventSuccess
	})
	seen := time.Now()
	if !s.IsLoading() {
		t.Fatal("loading cleared before the grace window")
	}
	waitFor(t, "grace window", func() bool { return !s.IsLoading() })
	if elapsed := time.Since(seen); elapsed < endToEndGrace/2 {
		t.Errorf("loading cleared %s after success, grace is %s", elapsed, endToEndGrace)
	}
}

// 完整流程：一次性给出全部信息，生成后再提出修改
func TestEndToEnd(t *testing.T) {
	_, client := newTestService(t)
	for _, early := range []bool{false, true} {
		s := newSession(t, client, endToEndGrace, agent.WithEarlyAttach(early))
		ctx := context.Background()

		reply, err := s.Submit(ctx, "I want to go from Hong Kong to Osaka for 5 days, 2 people, budget 8000 HKD")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if !reply.Dispatched {
			t.Fatalf("reply = %+v, want a dispatch", reply)
		}
		waitGrace(t, s, 7)

		events := s.ProgressEvents()
		if len(events) != 7 || events[len(events)-1].Type != types.EventSuccess {
			t.Fatalf("early=%v events = %+v", early, events)
		}
		it := s.Itinerary()
		if it.TripOverview == nil || len(it.DailyItinerary) != 5 || it.Hotels[0].PricePerNight != 900 {
			t.Fatalf("itinerary = %+v", it)
		}

		if _, err := s.Submit(ctx, "cheaper hotels please"); err != nil {
			t.Fatalf("Submit revision: %v", err)
		}
		waitGrace(t, s, 14)
		it = s.Itinerary()
		if it.TripOverview == nil || it.Hotels[0].PricePerNight != 650 {
			t.Errorf("merged itinerary = %+v", it)
		}
		if s.Phase() != types.PhaseIdle {
			t.Errorf("phase = %s", s.Phase())
		}
	}
}

func TestEndToEnd_GenerationError(t *testing.T) {
	_, client := newTestService(t)
	s := newSession(t, client, 20*time.Millisecond)
	if _, err := s.Submit(context.Background(), "from Hong Kong to Osaka for 3 days, 1 person, budget 5000 #fail"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "failure", func() bool { return !s.IsLoading() })
	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if last.Role != types.RoleSystem || !strings.Contains(last.Content, "flight search timed out") {
		t.Errorf("last message = %+v", last)
	}
}

func TestChat_RejectsIncompleteRequest(t *testing.T) {
	_, client := newTestService(t)
	_, err := client.Chat(context.Background(), &itinerary.ChatRequest{Message: "hi"})
	if !errors.Is(err, itinerary.ErrStatus) || !strings.Contains(err.Error(), "422") {
		t.Errorf("err = %v", err)
	}
}

func TestPlans(t *testing.T) {
	srv, client := newTestService(t)
	ctx := context.Background()
	s := newSession(t, client, 20*time.Millisecond, agent.WithPlanArchive(client))
	if err := s.Update(ctx, types.TravelSlots{Destination: types.Ptr("Osaka")}); err != nil {
		t.Fatal(err)
	}
	saved, err := s.SavePlan(ctx, "")
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	list, err := client.ListPlans(ctx)
	if err != nil || len(list) != 1 || list[0].Title != "Trip to Osaka" {
		t.Fatalf("ListPlans = %+v, %v", list, err)
	}
	got, err := client.GetPlan(ctx, saved.ID)
	if err != nil || got.TravelInfo.Destination != "Osaka" {
		t.Fatalf("GetPlan = %+v, %v", got, err)
	}
	if err := client.DeletePlan(ctx, saved.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := client.GetPlan(ctx, saved.ID); !errors.Is(err, itinerary.ErrStatus) {
		t.Errorf("err = %v, want not found", err)
	}

	// 没有令牌时拒绝访问
	resp, err := http.Get(srv.URL + "/api/plans")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
