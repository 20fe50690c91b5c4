package slot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tbxark/travelpilot/types"
)

// PipelineExtractor runs every stage in order. Each stage sees the slots
// filled by the stages before it, so later stages only fill what is still
// missing. A failing stage counts as a miss.
type PipelineExtractor struct {
	stages []Extractor
}

func NewPipelineExtractor(stages ...Extractor) *PipelineExtractor {
	return &PipelineExtractor{stages: stages}
}

func (p *PipelineExtractor) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	found := types.TravelSlots{}
	merged := existing
	for i, stage := range p.stages {
		if stage == nil {
			continue
		}
		if Validate(merged).IsValid {
			break
		}
		partial, err := stage.Extract(ctx, text, merged)
		if err != nil {
			slog.Warn("Extraction stage failed", "stage", i, "error", err)
			continue
		}
		partial = onlyUnset(partial, merged)
		found = found.Fill(partial)
		merged = merged.Fill(partial)
	}
	return onlyUnset(found, existing), nil
}

// FailbackExtractor returns the result of the first extractor that succeeds.
type FailbackExtractor struct {
	extractors []Extractor
}

func NewFailbackExtractor(extractors ...Extractor) *FailbackExtractor {
	return &FailbackExtractor{extractors: extractors}
}

func (f *FailbackExtractor) Extract(ctx context.Context, text string, existing types.TravelSlots) (types.TravelSlots, error) {
	lastErr := errors.New("no extractor configured")
	for _, e := range f.extractors {
		if e == nil {
			continue
		}
		partial, err := e.Extract(ctx, text, existing)
		if err == nil {
			return onlyUnset(partial, existing), nil
		}
		lastErr = err
	}
	return types.TravelSlots{}, fmt.Errorf("all extractors failed: %w", lastErr)
}
