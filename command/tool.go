package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/structured"
	"github.com/tbxark/travelpilot/types"
)

const (
	parseCommandToolName        = "parse_command_intent"
	parseCommandToolDescription = "Analyze user input and determine the conversation command: reset, save, none."
)

type parseCommandInput struct {
	Intent Command `json:"intent" jsonschema:"required,enum=reset,enum=save,enum=none,description=The user's command intent"`
}

type ToolBasedCommandParser struct {
	chain *structured.Chain[*Request, parseCommandInput]
}

func NewToolBasedCommandParser(chatModel model.ToolCallingChatModel) (*ToolBasedCommandParser, error) {
	chain, err := structured.NewChain[*Request, parseCommandInput](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	chain.WithValidator(func(out *parseCommandInput) error {
		switch out.Intent {
		case Reset, Save, None:
			return nil
		default:
			return fmt.Errorf("unknown intent %q", out.Intent)
		}
	})
	return &ToolBasedCommandParser{chain: chain}, nil
}

func (p *ToolBasedCommandParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	return result.Intent, nil
}

func buildParseCommandPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	message, err := types.FormatPromptContext(&types.PromptContext{
		Slots:       req.Slots,
		Locale:      req.Locale,
		MessagePair: types.MessagePair{Question: req.LastPrompt, Answer: req.Input},
	})
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}

	systemPrompt := fmt.Sprintf(`You are an assistant for a travel planning robot that collects trip details (departure, destination, days, people, budget) in a conversation.

Analyze the latest exchange between the assistant and the user and decide whether the user issued a conversation command.

IMPORTANT: Always combine the assistant's message with the user's answer. Most inputs are trip details or chatter and must be classified as none.

Choose one intent:
- reset: Only if the user explicitly wants to discard everything and plan a new trip from scratch (e.g., "start over", "forget all that, new trip").
- save: Only if the user explicitly asks to save or keep the current itinerary (e.g., "save this plan", "keep this one").
- none: Everything else, including changes to trip details such as "change the destination to Kyoto".

Call the '%s' tool with the result.`, parseCommandToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}
