package types

import (
	"math"
	"slices"
	"time"
)

const (
	DefaultCurrency = "CNY"

	MinDays   = 1
	MaxDays   = 30
	MinPeople = 1
	MaxPeople = 20
	// MaxBudget is exclusive.
	MaxBudget = 10_000_000

	MaxVibes = 3
)

// Currencies lists the currency codes a budget may be expressed in.
var Currencies = []string{"CNY", "HKD", "JPY", "USD", "SGD"}

// VibeCatalogue lists the trip styles a traveller can pick from.
var VibeCatalogue = []string{
	"Food", "Adventure", "Culture", "Shopping", "Relaxation",
	"Nature", "History", "Nightlife", "Family", "Romance",
	"Budget", "Luxury", "Beach", "Mountain", "City",
}

func IsKnownVibe(v string) bool {
	return slices.Contains(VibeCatalogue, v)
}

func IsKnownCurrency(c string) bool {
	return slices.Contains(Currencies, c)
}

type Party struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p Party) Total() int {
	return p.Adults + p.Children + p.Infants
}

// TravelSlots is the structured travel request filled across turns. A nil
// pointer means the slot is unset.
type TravelSlots struct {
	Departure   *string    `json:"departure,omitempty" jsonschema:"description=City the trip starts from"`
	Destination *string    `json:"destination,omitempty" jsonschema:"description=City or region to visit"`
	NumDays     *int       `json:"num_days,omitempty" jsonschema:"description=Trip length in days (1-30)"`
	NumPeople   *int       `json:"num_people,omitempty" jsonschema:"description=Number of travellers (1-20)"`
	Budget      *float64   `json:"budget,omitempty" jsonschema:"description=Total budget amount"`
	Currency    string     `json:"currency,omitempty" jsonschema:"description=Budget currency code"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Vibes       []string   `json:"vibes,omitempty"`
	Party       *Party     `json:"party,omitempty"`
	DateRange   string     `json:"date_range,omitempty"`
}

func NewTravelSlots() TravelSlots {
	return TravelSlots{Currency: DefaultCurrency}
}

func Ptr[T any](v T) *T {
	return &v
}

func (s TravelSlots) Clone() TravelSlots {
	out := s
	out.Departure = clonePtr(s.Departure)
	out.Destination = clonePtr(s.Destination)
	out.NumDays = clonePtr(s.NumDays)
	out.NumPeople = clonePtr(s.NumPeople)
	out.Budget = clonePtr(s.Budget)
	out.StartDate = clonePtr(s.StartDate)
	out.EndDate = clonePtr(s.EndDate)
	out.Party = clonePtr(s.Party)
	out.Vibes = slices.Clone(s.Vibes)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsEmpty reports whether no slot carries a value.
func (s TravelSlots) IsEmpty() bool {
	return s.Departure == nil && s.Destination == nil && s.NumDays == nil &&
		s.NumPeople == nil && s.Budget == nil && s.StartDate == nil &&
		s.EndDate == nil && len(s.Vibes) == 0 && s.Party == nil
}

// Fill copies every slot of partial that is unset in s. Values already set in
// s are kept. The currency travels with the budget.
func (s TravelSlots) Fill(partial TravelSlots) TravelSlots {
	out := s.Clone()
	if out.Departure == nil {
		out.Departure = clonePtr(partial.Departure)
	}
	if out.Destination == nil {
		out.Destination = clonePtr(partial.Destination)
	}
	if out.NumDays == nil {
		out.NumDays = clonePtr(partial.NumDays)
	}
	if out.NumPeople == nil {
		out.NumPeople = clonePtr(partial.NumPeople)
	}
	if out.Budget == nil && partial.Budget != nil {
		out.Budget = clonePtr(partial.Budget)
		if partial.Currency != "" {
			out.Currency = partial.Currency
		}
	}
	if out.StartDate == nil && out.EndDate == nil && partial.StartDate != nil && partial.EndDate != nil {
		out.StartDate = clonePtr(partial.StartDate)
		out.EndDate = clonePtr(partial.EndDate)
	}
	if len(out.Vibes) == 0 && len(partial.Vibes) > 0 {
		out.Vibes = slices.Clone(partial.Vibes)
	}
	if out.Party == nil {
		out.Party = clonePtr(partial.Party)
	}
	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}
	out.DateRange = FormatDateRange(out.StartDate, out.EndDate)
	return out
}

// DaysBetween returns the number of whole days covered by [start, end],
// rounding partial days up.
func DaysBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

// FormatDateRange renders a short label such as "Feb 6 - Feb 12". It returns
// an empty string unless both dates are set.
func FormatDateRange(start, end *time.Time) string {
	if start == nil || end == nil {
		return ""
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}
