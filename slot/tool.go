package slot

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/structured"
	"github.com/tbxark/travelpilot/types"
)

const (
	extractToolName        = "extract_travel_slots"
	extractToolDescription = "Record the travel details the user stated explicitly in their latest message. Leave a field empty or zero when it was not stated."
)

// ExtractedSlots is the flat shape LLM extractors fill in.
type ExtractedSlots struct {
	Departure   string  `json:"departure,omitempty" jsonschema:"description=City the trip starts from"`
	Destination string  `json:"destination,omitempty" jsonschema:"description=City or region to visit"`
	NumDays     int     `json:"num_days,omitempty" jsonschema:"description=Trip length in days,minimum=0,maximum=30"`
	NumPeople   int     `json:"num_people,omitempty" jsonschema:"description=Number of travellers,minimum=0,maximum=20"`
	Budget      float64 `json:"budget,omitempty" jsonschema:"description=Total budget as a plain number with multipliers applied"`
	Currency    string  `json:"currency,omitempty" jsonschema:"description=Budget currency,enum=CNY,enum=HKD,enum=JPY,enum=USD,enum=SGD"`
}

func (e ExtractedSlots) toSlots() types.TravelSlots {
	out := types.TravelSlots{Currency: strings.ToUpper(strings.TrimSpace(e.Currency))}
	if v := strings.TrimSpace(e.Departure); v != "" {
		out.Departure = &v
	}
	if v := strings.TrimSpace(e.Destination); v != "" {
		out.Destination = &v
	}
	if e.NumDays != 0 {
		out.NumDays = types.Ptr(e.NumDays)
	}
	if e.NumPeople != 0 {
		out.NumPeople = types.Ptr(e.NumPeople)
	}
	if e.Budget != 0 {
		out.Budget = types.Ptr(e.Budget)
	}
	return out
}

type ExtractionRequest struct {
	Text     string
	Existing types.TravelSlots
	Locale   string
}

func extractionSystemPrompt(toolName string) string {
	return fmt.Sprintf("You are a travel assistant that fills a trip request. Read the user's latest message and call %s. Rules: only use details the user stated; never guess; keep place names as written; convert amounts like 8k or 1.5万 to plain numbers; leave fields that are already known empty.", toolName)
}

func buildExtractionPrompt(ctx context.Context, req *ExtractionRequest) ([]*schema.Message, error) {
	body, err := types.FormatPromptContext(&types.PromptContext{
		Slots:       req.Existing,
		Phase:       types.PhaseExtracting,
		Locale:      req.Locale,
		MessagePair: types.MessagePair{Answer: req.Text},
		Missing:     Validate(req.Existing).Missing,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt context: %w", err)
	}
	return []*schema.Message{
		schema.SystemMessage(extractionSystemPrompt(extractToolName)),
		schema.UserMessage(body),
	}, nil
}

// ToolBasedExtractor asks a tool-calling chat model for the slots.
type ToolBasedExtractor struct {
	locale string
	chain  *structured.Chain[*ExtractionRequest, ExtractedSlots]
}

func NewToolBasedExtractor(chatModel model.ToolCallingChatModel, locale string) (*ToolBasedExtractor, error) {
	chain, err := structured.NewChain[*ExtractionRequest, ExtractedSlots](
		chatModel,
		buildExtractionPrompt,
		extractToolName,
		extractToolDescription,
	)
	if err != nil {
		return nil, err
	}
	chain.WithValidator(func(out *ExtractedSlots) error {
		if out.NumDays < 0 || out.NumPeople < 0 || out.Budget < 0 {
			return fmt.Errorf("negative value in %+v", *out)
		}
		return nil
	})
	return &ToolBasedExtractor{locale: locale, chain: chain}, nil
}

func (e *ToolBasedExtractor) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	if strings.TrimSpace(text) == "" {
		return types.TravelSlots{}, nil
	}
	out, err := e.chain.Invoke(ctx, &ExtractionRequest{Text: text, Existing: existing, Locale: e.locale})
	if err != nil {
		return types.TravelSlots{}, fmt.Errorf("LLM call failed: %w", err)
	}
	return onlyUnset(out.toSlots(), existing), nil
}
