package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/types"
)

// failMarker in a chat message makes the scripted run end with an error event.
const failMarker = "#fail"

type errorResponse struct {
	Error string `json:"error"`
}

type chatReply struct {
	AIResponse string `json:"ai_response"`
	RequestID  string `json:"request_id"`
	types.Itinerary
}

type server struct {
	hub   *progressHub
	step  time.Duration
	mu    sync.Mutex
	plans map[string][]itinerary.Plan // by owner token
}

func newServer(step time.Duration) *server {
	return &server{hub: newProgressHub(), step: step, plans: map[string][]itinerary.Plan{}}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())
	api := r.Group("/api")
	api.POST("/chat", s.chat)
	api.GET("/progress/:id", s.progress)
	plans := api.Group("/plans", bearerAuth())
	plans.POST("", s.savePlan)
	plans.GET("", s.listPlans)
	plans.GET("/:id", s.getPlan)
	plans.DELETE("/:id", s.deletePlan)
	return r
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		c.Set("owner", token)
		c.Next()
	}
}

func writeJSON(c *gin.Context, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json", body)
}

func (s *server) chat(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req itinerary.ChatRequest
	if err := sonic.Unmarshal(raw, &req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.TravelInfo.Destination == "" {
		writeJSON(c, http.StatusUnprocessableEntity, errorResponse{Error: "travel_info.destination is required"})
		return
	}
	id := req.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	slog.Info("Generation requested", "request_id", id, "first_complete_flag", req.FirstCompleteFlag, "history", len(req.ChatHistory))

	fail := strings.Contains(req.Message, failMarker)
	go s.runScript(id, req.TravelInfo, fail)

	reply := chatReply{RequestID: id}
	if req.FirstCompleteFlag == 0 {
		reply.AIResponse = fmt.Sprintf("Here is a first draft for %d days in %s.", req.TravelInfo.NumDays, req.TravelInfo.Destination)
		reply.Itinerary = draftItinerary(req.TravelInfo)
	} else {
		// A revision only carries the parts it changed.
		reply.AIResponse = "I have updated your hotels."
		reply.Hotels = hotels(req.TravelInfo, true)
	}
	writeJSON(c, http.StatusOK, reply)
}

func (s *server) runScript(id string, info itinerary.TravelInfo, fail bool) {
	steps := []struct {
		typ types.EventType
		msg string
	}{
		{types.EventInfo, "🤖 Create an AI travel agent"},
		{types.EventInfo, "Identifying the best possible route"},
		{types.EventDetail, fmt.Sprintf("%d full days to explore %s's iconic spots and hidden gems.", info.NumDays, info.Destination)},
		{types.EventInfo, "Searching for flights"},
		{types.EventInfo, "Searching for hotels"},
		{types.EventInfo, "Creating an itinerary"},
	}
	for _, st := range steps {
		time.Sleep(s.step)
		s.hub.publish(id, st.typ, st.msg)
	}
	time.Sleep(s.step)
	if fail {
		s.hub.publish(id, types.EventError, "flight search timed out")
		return
	}
	s.hub.publish(id, types.EventSuccess, "Trip Generated!")
}

func (s *server) progress(c *gin.Context) {
	id := c.Param("id")
	q := s.hub.queue(id)
	defer s.hub.release(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case ev := <-q:
			body, err := sonic.MarshalString(ev)
			if err != nil {
				slog.Warn("Failed to encode progress event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", body); err != nil {
				return
			}
			c.Writer.Flush()
			if ev.Type.Terminal() {
				return
			}
		}
	}
}

func (s *server) savePlan(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var plan itinerary.Plan
	if err := sonic.Unmarshal(raw, &plan); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid plan"})
		return
	}
	plan.ID = uuid.NewString()
	if plan.CreatedAt == "" {
		plan.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	owner := c.GetString("owner")
	s.mu.Lock()
	s.plans[owner] = append(s.plans[owner], plan)
	s.mu.Unlock()
	writeJSON(c, http.StatusCreated, plan)
}

func (s *server) listPlans(c *gin.Context) {
	owner := c.GetString("owner")
	s.mu.Lock()
	out := make([]itinerary.PlanSummary, 0, len(s.plans[owner]))
	for _, p := range s.plans[owner] {
		out = append(out, itinerary.PlanSummary{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt})
	}
	s.mu.Unlock()
	writeJSON(c, http.StatusOK, out)
}

func (s *server) getPlan(c *gin.Context) {
	owner, id := c.GetString("owner"), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.plans[owner], func(p itinerary.Plan) bool { return p.ID == id })
	if i < 0 {
		writeJSON(c, http.StatusNotFound, errorResponse{Error: "plan not found"})
		return
	}
	writeJSON(c, http.StatusOK, s.plans[owner][i])
}

func (s *server) deletePlan(c *gin.Context) {
	owner, id := c.GetString("owner"), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.plans[owner], func(p itinerary.Plan) bool { return p.ID == id })
	if i < 0 {
		writeJSON(c, http.StatusNotFound, errorResponse{Error: "plan not found"})
		return
	}
	s.plans[owner] = slices.Delete(s.plans[owner], i, i+1)
	c.Status(http.StatusNoContent)
}
