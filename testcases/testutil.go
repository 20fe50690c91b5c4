// Package testcases holds conversation scenarios that run against a real
// chat model. They are skipped unless TRAVELPILOT_LIVE_TESTS=1.
package testcases

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/tbxark/travelpilot/agent"
	"github.com/tbxark/travelpilot/config"
	"github.com/tbxark/travelpilot/dialogue"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/slot"
)

func InitChatModel(t *testing.T) *openai.ChatModel {
	t.Helper()
	if os.Getenv("TRAVELPILOT_LIVE_TESTS") != "1" {
		t.Skip("set TRAVELPILOT_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}
	cfg, err := config.Load(os.Getenv("TRAVELPILOT_CONFIG"))
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey == "" {
		t.Skip("llm.provider must be openai with an api_key")
		return nil
	}
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// recordingDispatcher acknowledges every request without a backend.
type recordingDispatcher struct {
	mu   sync.Mutex
	reqs []*itinerary.ChatRequest
}

func (d *recordingDispatcher) Chat(ctx context.Context, req *itinerary.ChatRequest) (*itinerary.ChatResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return &itinerary.ChatResponse{Raw: []byte(`{}`)}, nil
}

func (d *recordingDispatcher) last() *itinerary.ChatRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.reqs) == 0 {
		return nil
	}
	return d.reqs[len(d.reqs)-1]
}

// NewTestSession builds a session whose extraction, prompts and revisions
// go through the live model.
func NewTestSession(t *testing.T, locale string, opts ...agent.Option) (*agent.Session, *recordingDispatcher) {
	t.Helper()
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil, nil
	}
	rules, err := slot.NewRuleExtractor(locale)
	if err != nil {
		t.Fatal(err)
	}
	llm, err := slot.NewToolBasedExtractor(chatModel, locale)
	if err != nil {
		t.Fatal(err)
	}
	patcher, err := patch.NewToolBasedPatchGenerator(chatModel)
	if err != nil {
		t.Fatal(err)
	}
	dialogues := dialogue.NewFailbackDialogueGenerator(
		dialogue.NewToolBasedDialogueGenerator(chatModel, dialogue.WithDialogueLang(dialogue.LangForLocale(locale))),
		dialogue.NewLocalDialogueGenerator(locale),
	)
	dispatcher := &recordingDispatcher{}
	base := []agent.Option{
		agent.WithLocale(locale),
		agent.WithDialogueGenerator(dialogues),
		agent.WithPatchGenerator(patcher),
	}
	s := agent.NewSession(slot.NewPipelineExtractor(rules, llm), dispatcher, nil, append(base, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s, dispatcher
}
