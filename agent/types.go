package agent

import (
	"context"
	"errors"

	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/types"
)

var (
	ErrBusy          = errors.New("a generation request is already in flight")
	ErrEmptyInput    = errors.New("empty input")
	ErrClosed        = errors.New("session closed")
	ErrUnknownVibe   = errors.New("unknown vibe")
	ErrTooManyVibes  = errors.New("too many vibes")
	ErrInvalidDates  = errors.New("end date before start date")
	ErrInvalidParty  = errors.New("party size out of range")
	ErrNotConfigured = errors.New("not configured")
)

// Dispatcher sends a complete trip request to the Itinerary Service.
type Dispatcher interface {
	Chat(ctx context.Context, req *itinerary.ChatRequest) (*itinerary.ChatResponse, error)
}

type PlanArchive interface {
	SavePlan(ctx context.Context, plan *itinerary.Plan) (*itinerary.Plan, error)
}

// Snapshot is an immutable view of a session. Slices are never written
// after the snapshot is published.
type Snapshot struct {
	Phase     types.Phase           `json:"phase"`
	Loading   bool                  `json:"loading"`
	Slots     types.TravelSlots     `json:"slots"`
	Messages  []types.ChatMessage   `json:"messages"`
	Progress  []types.ProgressEvent `json:"progress"`
	Itinerary types.Itinerary       `json:"itinerary"`
	// RequestID is the request whose progress frames are accepted.
	RequestID string `json:"request_id,omitempty"`
	Completed bool   `json:"completed"`
}

// Reply describes what one Submit appended.
type Reply struct {
	Message    string   `json:"message"`
	Missing    []string `json:"missing,omitempty"`
	Dispatched bool     `json:"dispatched"`
	RequestID  string   `json:"request_id,omitempty"`
}
