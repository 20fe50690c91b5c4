// Package structured turns a tool-calling chat model into a typed function by
// forcing a single tool call and decoding its arguments.
package structured

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoToolCall = errors.New("no tool call in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Validator rejects decoded outputs that the caller cannot use.
type Validator[TOutput any] func(out *TOutput) error

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
	validator     Validator[TOutput]
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

// WithValidator installs a check that runs on every decoded output.
func (s *Chain[TInput, TOutput]) WithValidator(v Validator[TOutput]) *Chain[TInput, TOutput] {
	s.validator = v
	return s
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	result, err := s.decode(response)
	if err != nil {
		return nil, err
	}
	if s.validator != nil {
		if err := s.validator(result); err != nil {
			return nil, fmt.Errorf("invalid %s output: %w", s.ToolInfo.Name, err)
		}
	}
	return result, nil
}

func (s *Chain[TInput, TOutput]) decode(msg *schema.Message) (*TOutput, error) {
	if msg == nil {
		return nil, ErrNoToolCall
	}
	for _, call := range msg.ToolCalls {
		if call.Function.Name != "" && call.Function.Name != s.ToolInfo.Name {
			continue
		}
		var result TOutput
		if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
			return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
		}
		return &result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoToolCall, msg.Content)
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}
