package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/types"
)

// ToolBasedDialogueGenerator asks the chat model to phrase the next question.
type ToolBasedDialogueGenerator struct {
	Lang                 string
	systemPrompt         string
	systemPromptTemplate string
	chatModel            model.ToolCallingChatModel
}

// DefaultDialogueSystemPromptTemplate may contain a single "%s" placeholder
// for the reply language.
const DefaultDialogueSystemPromptTemplate = `You are TravelPilot, a friendly travel planner collecting the details needed to plan a trip.

Respond as if chatting with a friend:
- If trip details are missing, ask for them casually and give a short example for each.
- Acknowledge what the traveller has already told you.
- Never invent values for the traveller.
- Keep it short.
- Reply in %s.
`

type dialogueGeneratorOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
}

type GeneratorOption func(*dialogueGeneratorOptions)

// WithDialogueLang sets the language used by the default system prompt template.
func WithDialogueLang(lang string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.lang = lang
	}
}

// WithDialogueSystemPrompt overrides the system prompt.
func WithDialogueSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithDialogueSystemPromptTemplate(systemPromptTemplate string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

// LangForLocale names the reply language of a locale for prompts.
func LangForLocale(locale string) string {
	if strings.EqualFold(locale, "zh") {
		return "Simplified Chinese"
	}
	return "English"
}

func NewToolBasedDialogueGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *ToolBasedDialogueGenerator {
	options := dialogueGeneratorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultDialogueSystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = "English"
	}
	return &ToolBasedDialogueGenerator{
		Lang:                 options.lang,
		systemPrompt:         options.systemPrompt,
		systemPromptTemplate: options.systemPromptTemplate,
		chatModel:            chatModel,
	}
}

func (g *ToolBasedDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	messages, err := g.buildDialoguePrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build dialogue prompt: %w", err)
	}

	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	content := strings.TrimSpace(response.Content)
	if content == "" {
		return nil, fmt.Errorf("LLM returned an empty reply")
	}
	return &NextTurnPlan{Message: content}, nil
}

func (g *ToolBasedDialogueGenerator) buildDialoguePrompt(req *Request) ([]*schema.Message, error) {
	message, err := types.FormatPromptContext(&types.PromptContext{
		Slots:       req.Slots,
		Phase:       req.Phase,
		MessagePair: types.MessagePair{Answer: req.LastUserInput},
		Missing:     req.Missing,
	})
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}

	systemPrompt := g.systemPrompt
	if systemPrompt == "" {
		tpl := g.systemPromptTemplate
		if tpl == "" {
			tpl = DefaultDialogueSystemPromptTemplate
		}
		if strings.Contains(tpl, "%s") {
			systemPrompt = fmt.Sprintf(tpl, g.Lang)
		} else {
			systemPrompt = tpl
		}
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}
