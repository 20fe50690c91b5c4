package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tbxark/travelpilot/dialogue"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/progress"
	"github.com/tbxark/travelpilot/types"
)

// Submit handles one user utterance. The message is logged before anything
// else happens. Incomplete slots produce a prompt for the missing fields;
// complete slots dispatch a generation request in the background.
func (s *Session) Submit(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if reply, handled, err := s.runCommand(ctx, text); handled {
		return reply, err
	}

	var existing types.TravelSlots
	var gateErr error
	var epoch int
	if err := s.do(ctx, func() {
		if s.st.loading || !s.st.phase.AcceptsInput() {
			gateErr = ErrBusy
			return
		}
		epoch = s.st.epoch
		s.appendMessage(types.RoleUser, text)
		s.st.phase = types.PhaseExtracting
		existing = s.st.slots.Clone()
		s.publish()
	}); err != nil {
		return nil, err
	}
	if gateErr != nil {
		slog.Debug("Submit rejected", "phase", s.Phase(), "error", gateErr)
		return nil, gateErr
	}

	// The phase is Extracting from here on, so the remaining steps must
	// run even if the caller gives up.
	ctx = context.WithoutCancel(ctx)

	partial, err := s.extractor.Extract(ctx, text, existing)
	if err != nil {
		slog.Debug("Extraction missed", "error", err)
		partial = types.TravelSlots{}
	}
	slog.Debug("Extracted slots", "slots", partial)

	reply := &Reply{}
	var prompt *dialogue.Request
	if err := s.do(ctx, func() {
		if s.st.epoch != epoch {
			return
		}
		s.st.slots = s.st.slots.Fill(partial)
		result := s.spec.MissingFacts(s.st.slots)
		if result.IsValid {
			reply = s.beginDispatch(text)
			s.publish()
			return
		}
		prompt = &dialogue.Request{
			Slots:         s.st.slots.Clone(),
			Phase:         types.PhaseAwaitingInput,
			MissingFields: result.MissingFields,
			Missing:       result.Missing,
			LastUserInput: text,
		}
		reply.Missing = result.MissingFields
	}); err != nil {
		return nil, err
	}
	if prompt == nil {
		return reply, nil
	}

	message := s.composePrompt(ctx, prompt)
	if err := s.do(ctx, func() {
		if s.st.epoch != epoch {
			return
		}
		reply.Message = message
		s.appendMessage(types.RoleSystem, message)
		s.st.phase = types.PhaseAwaitingInput
		s.publish()
	}); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *Session) composePrompt(ctx context.Context, req *dialogue.Request) string {
	fallback := s.phrases.Compose(req.MissingFields)
	if s.dialogue == nil {
		return fallback
	}
	plan, err := s.dialogue.GenerateDialogue(ctx, req)
	if err != nil || plan == nil || plan.Message == "" {
		slog.Warn("Dialogue generation failed, using fixed prompt", "error", err)
		return fallback
	}
	return plan.Message
}

// beginDispatch runs on the loop once the slots are complete.
func (s *Session) beginDispatch(text string) *Reply {
	// The backend reads the latest requirement from the last history entry,
	// so the history is taken after the user message and before the ack.
	history := outboundHistory(s.st.messages, s.trimmer)
	s.appendMessage(types.RoleSystem, s.phrases.Ready)

	id := uuid.NewString()
	s.st.loading = true
	s.st.phase = types.PhaseDispatching
	s.st.pending = id
	s.st.streamDone = false
	s.st.earlyBound = false

	flag := 0
	if s.st.completed {
		flag = 1
	}
	vibes := slices.Clone(s.st.slots.Vibes)
	if vibes == nil {
		vibes = []string{}
	}
	message := text
	if summary := s.spec.Summary(s.st.slots); summary != "" {
		message = text + "\n\n" + summary
	}
	req := &itinerary.ChatRequest{
		Message:           message,
		Vibe:              vibes,
		ChatHistory:       history,
		TravelInfo:        itinerary.TravelInfoFromSlots(s.st.slots),
		RequestID:         id,
		FirstCompleteFlag: flag,
	}

	if s.earlyAttach && s.stream != nil {
		s.bind(id)
		s.st.earlyBound = true
	}
	slog.Info("Dispatching generation request", "request_id", id, "first_complete_flag", flag)
	go s.dispatch(req)
	return &Reply{Message: s.phrases.Ready, Dispatched: true, RequestID: id}
}

func (s *Session) dispatch(req *itinerary.ChatRequest) {
	resp, err := s.dispatcher.Chat(s.ctx, req)
	s.post(func() {
		s.onResponse(req.RequestID, resp, err)
		s.publish()
	})
}

func (s *Session) onResponse(localID string, resp *itinerary.ChatResponse, err error) {
	if s.st.pending != localID {
		slog.Debug("Dropping response of abandoned request", "request_id", localID)
		return
	}
	s.st.pending = ""

	if err != nil {
		slog.Warn("Dispatch failed", "request_id", localID, "error", err)
		s.appendMessage(types.RoleSystem, fmt.Sprintf(s.phrases.DispatchFailed, err.Error()))
		if s.st.earlyBound && s.stream != nil {
			s.stream.Detach()
		}
		s.st.bound = ""
		s.st.loading = false
		s.st.phase = types.PhaseAwaitingInput
		return
	}

	s.st.completed = true
	if len(resp.Raw) > 0 {
		merged, changed, mErr := patch.MergeByPresence(s.st.itinerary, resp.Raw, types.ItineraryKeys)
		switch {
		case mErr != nil:
			slog.Warn("Failed to merge itinerary", "request_id", localID, "error", mErr)
		case changed:
			s.st.itinerary = merged
		}
	}
	if resp.AIResponse != "" {
		s.appendMessage(types.RoleAssistant, resp.AIResponse)
	}

	id := resp.RequestID
	if id == "" {
		id = localID
	}
	switch {
	case s.stream == nil:
		s.finish()
	case s.st.earlyBound && id == localID:
		if s.st.streamDone {
			s.finish()
			return
		}
		s.st.phase = types.PhaseStreaming
	default:
		// The backend id is authoritative and replaces any early binding.
		s.bind(id)
		s.st.phase = types.PhaseStreaming
	}
}

func (s *Session) finish() {
	s.st.loading = false
	s.st.phase = types.PhaseIdle
	s.st.bound = ""
}

// bind must run on the loop.
func (s *Session) bind(id string) {
	s.st.bound = id
	b := s.stream.Attach(s.ctx, id)
	go s.pump(b)
}

// pump forwards frames of one binding to the loop, tagged with its id.
func (s *Session) pump(b *progress.Binding) {
	sr := b.Stream()
	defer sr.Close()
	for {
		ev, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Debug("Progress stream ended with transport error", "request_id", b.RequestID, "error", err)
			break
		}
		s.post(func() {
			if s.onProgress(b.RequestID, ev) {
				s.publish()
			}
		})
	}
	<-b.Done()
	reason := b.Reason()
	s.post(func() {
		s.onStreamClosed(b.RequestID, reason)
		s.publish()
	})
}

// onProgress reports whether the event was accepted.
func (s *Session) onProgress(id string, ev types.ProgressEvent) bool {
	if id != s.st.bound {
		slog.Debug("Dropping progress frame of stale request", "request_id", id, "bound", s.st.bound)
		return false
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.st.progress = append(s.st.progress, ev)
	if ev.Type == types.EventError {
		slog.Error("Itinerary generation failed", "request_id", id, "message", ev.Message)
		s.appendMessage(types.RoleSystem, fmt.Sprintf(s.phrases.GenerationFailed, ev.Message))
	}
	return true
}

func (s *Session) onStreamClosed(id string, reason progress.CloseReason) {
	if id != s.st.bound {
		return
	}
	slog.Debug("Progress stream closed", "request_id", id, "reason", reason)
	if s.st.phase == types.PhaseDispatching {
		// Early binding finished before the response; finish on response.
		s.st.streamDone = true
		s.st.bound = ""
		return
	}
	s.finish()
}
