// Package slot turns free-text utterances into travel slots and checks
// whether a slot set is complete enough to plan a trip.
package slot

import (
	"context"
	"errors"

	"github.com/tbxark/travelpilot/types"
)

var ErrUnknownLocale = errors.New("unknown locale")

// Extractor returns the slots found in text that are still unset in
// existing. Slots already present in existing are never part of the result.
type Extractor interface {
	Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error)
}

type ExtractorFunc func(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	return f(ctx, text, existing)
}

func validDays(n int) bool   { return n >= types.MinDays && n <= types.MaxDays }
func validPeople(n int) bool { return n >= types.MinPeople && n <= types.MaxPeople }
func validBudget(v float64) bool {
	return v > 0 && v < types.MaxBudget
}

// onlyUnset drops every slot of partial that is already set in existing and
// every value outside its bound.
func onlyUnset(partial, existing types.TravelSlots) types.TravelSlots {
	out := types.TravelSlots{}
	if existing.Departure == nil && partial.Departure != nil && *partial.Departure != "" {
		out.Departure = types.Ptr(*partial.Departure)
	}
	if existing.Destination == nil && partial.Destination != nil && *partial.Destination != "" {
		out.Destination = types.Ptr(*partial.Destination)
	}
	if existing.NumDays == nil && partial.NumDays != nil && validDays(*partial.NumDays) {
		out.NumDays = types.Ptr(*partial.NumDays)
	}
	if existing.NumPeople == nil && partial.NumPeople != nil && validPeople(*partial.NumPeople) {
		out.NumPeople = types.Ptr(*partial.NumPeople)
	}
	if existing.Budget == nil && partial.Budget != nil && validBudget(*partial.Budget) {
		out.Budget = types.Ptr(*partial.Budget)
		out.Currency = partial.Currency
		if !types.IsKnownCurrency(out.Currency) {
			out.Currency = types.DefaultCurrency
		}
	}
	return out
}
