package agent

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/slot"
	"github.com/tbxark/travelpilot/types"
)

// TripSpec describes the slot set to the parts of a session that reason
// about it.
type TripSpec interface {
	JsonSchema() (string, error)
	MissingFacts(current types.TravelSlots) slot.ValidationResult
	// AllowedPaths are the JSON pointers an explicit edit may touch.
	AllowedPaths() patch.PathSet
	FieldGuide() map[string]string
	Summary(current types.TravelSlots) string
}

type StandardTripSpec struct{}

var _ TripSpec = StandardTripSpec{}

func (StandardTripSpec) JsonSchema() (string, error) {
	schema := jsonschema.Reflect(&types.TravelSlots{})
	schema.Title = "Trip slots"
	schema.Description = "Structured parameters of one trip request."
	raw, err := sonic.MarshalString(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return raw, nil
}

func (StandardTripSpec) MissingFacts(current types.TravelSlots) slot.ValidationResult {
	return slot.Validate(current)
}

// date_range is derived from the dates and never edited directly.
func (StandardTripSpec) AllowedPaths() patch.PathSet {
	return patch.NewPathSet(patch.AllJSONPointerPaths[types.TravelSlots]()...).Without("/date_range")
}

func (StandardTripSpec) FieldGuide() map[string]string {
	return map[string]string{
		"/departure":   "City the trip starts from",
		"/destination": "City or region to visit",
		"/num_days":    fmt.Sprintf("Integer, %d to %d", types.MinDays, types.MaxDays),
		"/num_people":  fmt.Sprintf("Integer, %d to %d", types.MinPeople, types.MaxPeople),
		"/budget":      "Total amount, greater than 0 and below 10000000",
		"/currency":    "One of " + strings.Join(types.Currencies, ", "),
		"/vibes":       fmt.Sprintf("At most %d of: %s", types.MaxVibes, strings.Join(types.VibeCatalogue, ", ")),
		"/start_date":  "RFC 3339 timestamp, set together with /end_date",
		"/end_date":    "RFC 3339 timestamp, not before /start_date",
	}
}

// Summary renders the slot set appended to the user's text in a generation
// request.
func (StandardTripSpec) Summary(current types.TravelSlots) string {
	rows := types.SlotRows(current)
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Trip details:")
	for _, row := range rows {
		sb.WriteString("\n- ")
		sb.WriteString(row[0])
		sb.WriteString(": ")
		sb.WriteString(row[1])
	}
	return sb.String()
}
