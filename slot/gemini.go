package slot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/generative-ai-go/genai"
	"github.com/tbxark/travelpilot/types"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash"

const geminiOutputContract = `Reply with one JSON object only:
{"departure": string, "destination": string, "num_days": int, "num_people": int, "budget": number, "currency": "CNY"|"HKD"|"JPY"|"USD"|"SGD"}
Use "" or 0 for anything the user did not state.`

// GeminiExtractor asks a Gemini model in JSON mode for the slots.
type GeminiExtractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
	locale string
}

func NewGeminiExtractor(ctx context.Context, apiKey, modelName, locale string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)
	model.SystemInstruction = genai.NewUserContent(genai.Text(extractionSystemPrompt("the JSON reply")))
	return &GeminiExtractor{client: client, model: model, locale: locale}, nil
}

func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}

func (e *GeminiExtractor) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	if strings.TrimSpace(text) == "" {
		return types.TravelSlots{}, nil
	}
	body, err := types.FormatPromptContext(&types.PromptContext{
		Slots:       existing,
		Phase:       types.PhaseExtracting,
		Locale:      e.locale,
		MessagePair: types.MessagePair{Answer: text},
		Missing:     Validate(existing).Missing,
	})
	if err != nil {
		return types.TravelSlots{}, fmt.Errorf("format prompt context: %w", err)
	}
	resp, err := e.model.GenerateContent(ctx, genai.Text(body+"\n\n"+geminiOutputContract))
	if err != nil {
		return types.TravelSlots{}, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return types.TravelSlots{}, errors.New("no response candidates from Gemini")
	}
	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}
	out, err := decodeExtractedJSON(raw.String())
	if err != nil {
		return types.TravelSlots{}, err
	}
	return onlyUnset(out.toSlots(), existing), nil
}

func decodeExtractedJSON(raw string) (ExtractedSlots, error) {
	clean := cleanJSONString(raw)
	var out ExtractedSlots
	if err := sonic.UnmarshalString(clean, &out); err != nil {
		return ExtractedSlots{}, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	return out, nil
}

func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
