// Package itinerary is the client of the Itinerary Service: chat dispatch,
// the progress event stream and the saved plan archive.
package itinerary

import (
	"time"

	"github.com/tbxark/travelpilot/types"
)

// DateLayout is the date format the service parses in travel_info.
const DateLayout = "Mon Jan 02 2006"

type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TravelInfo struct {
	Destination string  `json:"destination"`
	Departure   string  `json:"departure"`
	NumDays     int     `json:"num_days"`
	NumPeople   int     `json:"num_people"`
	Budget      float64 `json:"budget"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

func TravelInfoFromSlots(s types.TravelSlots) TravelInfo {
	info := TravelInfo{
		StartDate: formatDate(s.StartDate),
		EndDate:   formatDate(s.EndDate),
	}
	if s.Destination != nil {
		info.Destination = *s.Destination
	}
	if s.Departure != nil {
		info.Departure = *s.Departure
	}
	if s.NumDays != nil {
		info.NumDays = *s.NumDays
	}
	if s.NumPeople != nil {
		info.NumPeople = *s.NumPeople
	}
	if s.Budget != nil {
		info.Budget = *s.Budget
	}
	return info
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

type ChatRequest struct {
	Message           string         `json:"message"`
	Vibe              []string       `json:"vibe"`
	ChatHistory       []HistoryEntry `json:"chat_history"`
	TravelInfo        TravelInfo     `json:"travel_info"`
	RequestID         string         `json:"request_id"`
	FirstCompleteFlag int            `json:"first_complete_flag"`
}

// ChatResponse keeps the raw body so itinerary keys can be merged by
// presence.
type ChatResponse struct {
	AIResponse string `json:"ai_response,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Raw        []byte `json:"-"`
}

// Plan is a saved itinerary in the archive.
type Plan struct {
	ID         string            `json:"id,omitempty"`
	Title      string            `json:"title"`
	TravelInfo TravelInfo        `json:"travel_info"`
	Vibes      []string          `json:"vibes,omitempty"`
	Itinerary  types.Itinerary   `json:"itinerary"`
	Messages   []HistoryEntry    `json:"messages,omitempty"`
	CreatedAt  string            `json:"created_at,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

type PlanSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
}
