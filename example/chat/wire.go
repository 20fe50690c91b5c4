package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"
	"github.com/tbxark/travelpilot/agent"
	"github.com/tbxark/travelpilot/command"
	"github.com/tbxark/travelpilot/config"
	"github.com/tbxark/travelpilot/dialogue"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/progress"
	"github.com/tbxark/travelpilot/slot"
)

// app holds everything built from the config; closers run in reverse order.
type app struct {
	cfg     *config.Config
	client  *itinerary.Client
	session *agent.Session
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newItineraryClient(cfg *config.Config) (*itinerary.Client, error) {
	opts := []itinerary.Option{itinerary.WithDialTimeout(cfg.Service.DialTimeout)}
	if cfg.Service.Token != "" {
		opts = append(opts, itinerary.WithToken(cfg.Service.Token))
	}
	return itinerary.NewClient(cfg.Service.BaseURL, opts...)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	client, err := newItineraryClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create itinerary client: %w", err)
	}
	a.client = client

	rules, err := slot.NewRuleExtractor(cfg.Locale)
	if err != nil {
		return nil, err
	}
	opts := []agent.Option{
		agent.WithLocale(cfg.Locale),
		agent.WithEarlyAttach(cfg.Session.EarlyAttach),
		agent.WithHistoryLimit(cfg.Session.HistoryLimit),
		agent.WithGreeting(cfg.Session.Greeting),
		agent.WithPlanArchive(client),
		agent.WithCommandParser(command.NewLocalCommandParser()),
	}

	var extractor slot.Extractor = rules
	switch cfg.LLM.Provider {
	case "openai":
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		llmOpts, llmExtractor, err := modelBacked(cm, cfg.Locale)
		if err != nil {
			return nil, err
		}
		opts = append(opts, llmOpts...)
		extractor = slot.NewPipelineExtractor(rules, llmExtractor)
	case "gemini":
		gemini, err := slot.NewGeminiExtractor(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini extractor: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
		extractor = slot.NewPipelineExtractor(rules, gemini)
	}

	switch cfg.Cache.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		opts = append(opts, agent.WithCheckpoints(agent.NewCheckpointStore(
			agent.NewRedisCache[agent.Checkpoint](rdb, cfg.Cache.TTL),
		)))
	default:
		opts = append(opts, agent.WithCheckpoints(agent.NewCheckpointStore(
			agent.NewMemoryCache[agent.Checkpoint](cfg.Cache.TTL),
		)))
	}

	stream := progress.NewClient(client, progress.WithGraceWindow(cfg.Progress.GraceWindow))
	a.session = agent.NewSession(extractor, client, stream, opts...)
	a.closers = append(a.closers, a.session.Close)
	slog.Info("Session ready",
		"service", client.BaseURL(),
		"locale", cfg.Locale,
		"llm", cfg.LLM.Provider,
		"cache", cfg.Cache.Driver,
	)
	return a, nil
}

// modelBacked builds the chat-model components: the extractor stage, LLM
// phrased follow-up questions with the fixed table as fallback, free-text
// revisions and command recognition.
func modelBacked(cm model.ToolCallingChatModel, locale string) ([]agent.Option, slot.Extractor, error) {
	extractor, err := slot.NewToolBasedExtractor(cm, locale)
	if err != nil {
		return nil, nil, err
	}
	patcher, err := patch.NewToolBasedPatchGenerator(cm)
	if err != nil {
		return nil, nil, err
	}
	commands, err := command.NewToolBasedCommandParser(cm)
	if err != nil {
		return nil, nil, err
	}
	dialogues := dialogue.NewFailbackDialogueGenerator(
		dialogue.NewToolBasedDialogueGenerator(cm, dialogue.WithDialogueLang(dialogue.LangForLocale(locale))),
		dialogue.NewLocalDialogueGenerator(locale),
	)
	return []agent.Option{
		agent.WithDialogueGenerator(dialogues),
		agent.WithPatchGenerator(patcher),
		agent.WithCommandParser(command.NewKeywordFirstParser(command.NewLocalCommandParser(), commands)),
	}, extractor, nil
}
