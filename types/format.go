package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

type MessagePair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PromptContext is what the LLM-backed extractors and generators see of a
// conversation turn.
type PromptContext struct {
	Slots       TravelSlots
	Phase       Phase
	Locale      string
	MessagePair MessagePair
	Missing     []FieldInfo
}

func formatMissingFieldsSection(fields []FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing required fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Description")
	for _, field := range fields {
		_ = table.Append(field.DisplayName, field.JSONPointer, field.Description)
	}
	_ = table.Render()
	return buf.String()
}

func formatKnownSlotsSection(s TravelSlots) string {
	rows := SlotRows(s)
	if len(rows) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Known trip details:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}
	_ = table.Render()
	return buf.String()
}

// SlotRows lists the set slots as label/value pairs in display order.
func SlotRows(s TravelSlots) [][2]string {
	rows := make([][2]string, 0, 8)
	if s.Departure != nil {
		rows = append(rows, [2]string{"Departure", *s.Departure})
	}
	if s.Destination != nil {
		rows = append(rows, [2]string{"Destination", *s.Destination})
	}
	if s.NumDays != nil {
		rows = append(rows, [2]string{"Days", strconv.Itoa(*s.NumDays)})
	}
	if s.NumPeople != nil {
		rows = append(rows, [2]string{"People", strconv.Itoa(*s.NumPeople)})
	}
	if s.Budget != nil {
		rows = append(rows, [2]string{"Budget", strconv.FormatFloat(*s.Budget, 'f', -1, 64) + " " + s.Currency})
	}
	if s.DateRange != "" {
		rows = append(rows, [2]string{"Dates", s.DateRange})
	}
	if len(s.Vibes) > 0 {
		rows = append(rows, [2]string{"Vibes", strings.Join(s.Vibes, ", ")})
	}
	if s.Party != nil {
		rows = append(rows, [2]string{"Party", fmt.Sprintf("%d adults, %d children, %d infants", s.Party.Adults, s.Party.Children, s.Party.Infants)})
	}
	return rows
}

func FormatPromptContext(pc *PromptContext) (string, error) {
	stateJSON, err := sonic.MarshalString(pc.Slots)
	if err != nil {
		return "", err
	}
	sections := []string{
		fmt.Sprintf("# Current Date: \n %s", time.Now().Format(time.RFC3339)),
		fmt.Sprintf("# Trip slots JSON:\n```json\n%s\n```", stateJSON),
	}
	if pc.Phase != "" {
		sections = append(sections, fmt.Sprintf("# Current Phase:\n%s", pc.Phase))
	}
	if pc.Locale != "" {
		sections = append(sections, fmt.Sprintf("# Locale:\n%s", pc.Locale))
	}
	if s := formatKnownSlotsSection(pc.Slots); s != "" {
		sections = append(sections, s)
	}
	if pc.MessagePair.Question != "" || pc.MessagePair.Answer != "" {
		sections = append(sections, "# Latest Dialogue:")
		if pc.MessagePair.Question != "" {
			sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", pc.MessagePair.Question))
		}
		if pc.MessagePair.Answer != "" {
			sections = append(sections, fmt.Sprintf("## User Answer:\n%s", pc.MessagePair.Answer))
		}
	}
	if s := formatMissingFieldsSection(pc.Missing); s != "" {
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n\n"), nil
}
