package patch

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/structured"
)

const (
	updateSlotsToolName        = "update_trip"
	updateSlotsToolDescription = "Generate RFC6902 JSON Patch operations that apply the traveller's requested changes to the trip slots. Only include changes the traveller asked for."
)

// ToolBasedPatchGenerator turns a correction such as "make it Kyoto instead"
// into patch operations.
type ToolBasedPatchGenerator struct {
	chain *structured.Chain[*Request, UpdateSlotsArgs]
}

func NewToolBasedPatchGenerator(chatModel model.ToolCallingChatModel) (*ToolBasedPatchGenerator, error) {
	chain, err := structured.NewChain[*Request, UpdateSlotsArgs](
		chatModel,
		buildPatchPrompt,
		updateSlotsToolName,
		updateSlotsToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedPatchGenerator{chain: chain}, nil
}

func (g *ToolBasedPatchGenerator) GeneratePatch(ctx context.Context, req *Request) (*UpdateSlotsArgs, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if err := ValidatePatchOperations(result.Ops, NewPathSet(req.AllowedPaths...)); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	return result, nil
}

func buildPatchPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	stateJSON, err := sonic.MarshalString(req.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("marshal trip slots: %w", err)
	}
	systemPrompt := fmt.Sprintf("You are a travel assistant. Read the traveller's request and call %s with RFC6902 JSON Patch operations. Rules: only use explicit traveller info; use replace for changes and add for new values; use remove to clear a value; only use allowed paths; days must be 1-30 and people 1-20; if nothing should change, return empty operations.", updateSlotsToolName)

	sections := []string{
		fmt.Sprintf("# Trip slots JSON:\n%s", stateJSON),
		fmt.Sprintf("# Allowed paths:\n%s", formatPathTable(req.AllowedPaths, req.FieldGuidance)),
	}
	if req.StateSchema != "" {
		sections = append(sections, fmt.Sprintf("# Trip slots schema:\n%s", req.StateSchema))
	}
	if req.Instruction != "" {
		sections = append(sections, fmt.Sprintf("# Traveller request:\n%s", req.Instruction))
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}
