package slot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/travelpilot/types"
)

// RequiredFields is the fixed order in which missing slots are reported.
var RequiredFields = []types.FieldInfo{
	{JSONPointer: "/departure", DisplayName: "Departure location", Description: "City the trip starts from", Required: true},
	{JSONPointer: "/destination", DisplayName: "Destination", Description: "City or region to visit", Required: true},
	{JSONPointer: "/num_days", DisplayName: "Number of days", Description: "Trip length, 1 to 30 days", Required: true},
	{JSONPointer: "/num_people", DisplayName: "Number of people", Description: "Travellers, 1 to 20", Required: true},
	{JSONPointer: "/budget", DisplayName: "Total budget", Description: "Total amount with currency", Required: true},
}

type ValidationResult struct {
	IsValid       bool              `json:"is_valid"`
	MissingFields []string          `json:"missing_fields"`
	Missing       []types.FieldInfo `json:"-"`
}

// Validate reports which required slots are absent. Zero counts and blank
// strings are treated as absent.
func Validate(s types.TravelSlots) ValidationResult {
	present := []bool{
		s.Departure != nil && strings.TrimSpace(*s.Departure) != "",
		s.Destination != nil && strings.TrimSpace(*s.Destination) != "",
		s.NumDays != nil && *s.NumDays != 0,
		s.NumPeople != nil && *s.NumPeople != 0,
		s.Budget != nil && *s.Budget != 0,
	}
	res := ValidationResult{MissingFields: []string{}}
	for i, ok := range present {
		if ok {
			continue
		}
		res.MissingFields = append(res.MissingFields, RequiredFields[i].DisplayName)
		res.Missing = append(res.Missing, RequiredFields[i])
	}
	res.IsValid = len(res.MissingFields) == 0
	return res
}

var ErrOutOfRange = errors.New("slot value out of range")

// CheckBounds verifies the set slots of an explicitly edited slot set. Unlike
// extraction, which drops bad values, edits are rejected as a whole.
func CheckBounds(s types.TravelSlots) error {
	if s.NumDays != nil && !validDays(*s.NumDays) {
		return fmt.Errorf("num_days %d: %w", *s.NumDays, ErrOutOfRange)
	}
	if s.NumPeople != nil && !validPeople(*s.NumPeople) {
		return fmt.Errorf("num_people %d: %w", *s.NumPeople, ErrOutOfRange)
	}
	if s.Budget != nil && !validBudget(*s.Budget) {
		return fmt.Errorf("budget %v: %w", *s.Budget, ErrOutOfRange)
	}
	if s.Currency != "" && !types.IsKnownCurrency(s.Currency) {
		return fmt.Errorf("unknown currency %q: %w", s.Currency, ErrOutOfRange)
	}
	if len(s.Vibes) > types.MaxVibes {
		return fmt.Errorf("%d vibes, at most %d: %w", len(s.Vibes), types.MaxVibes, ErrOutOfRange)
	}
	for _, v := range s.Vibes {
		if !types.IsKnownVibe(v) {
			return fmt.Errorf("unknown vibe %q: %w", v, ErrOutOfRange)
		}
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return fmt.Errorf("end date before start date: %w", ErrOutOfRange)
	}
	return nil
}
