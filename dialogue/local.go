package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/travelpilot/types"
)

// LocalDialogueGenerator answers from the fixed phrase table.
type LocalDialogueGenerator struct {
	Phrases *Phrases
}

func NewLocalDialogueGenerator(locale string) *LocalDialogueGenerator {
	return &LocalDialogueGenerator{Phrases: PhrasesFor(locale)}
}

func (g *LocalDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	p := g.Phrases
	if p == nil {
		p = english
	}
	switch {
	case len(req.MissingFields) > 0:
		return &NextTurnPlan{Message: p.Compose(req.MissingFields)}, nil
	case req.Phase == types.PhaseDispatching:
		return &NextTurnPlan{Message: p.Ready}, nil
	default:
		return &NextTurnPlan{Message: p.Greeting}, nil
	}
}

type FailbackDialogueGenerator struct {
	generators []Generator
}

func NewFailbackDialogueGenerator(generators ...Generator) *FailbackDialogueGenerator {
	return &FailbackDialogueGenerator{generators: generators}
}

func (g *FailbackDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	lastErr := errors.New("no dialogue generator configured")
	for _, generator := range g.generators {
		plan, err := generator.GenerateDialogue(ctx, req)
		if err == nil && plan != nil && plan.Message != "" {
			return plan, nil
		}
		if err == nil {
			err = fmt.Errorf("%T returned an empty message", generator)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
