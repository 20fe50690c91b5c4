package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes a Session as an eino adk.Agent. Each run submits the last
// input message and answers with what the session appended for it.
type Agent struct {
	name        string
	description string
	session     *Session
}

func NewAgent(name, description string, session *Session) *Agent {
	return &Agent{name: name, description: description, session: session}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{Err: fmt.Errorf("recover from panic: %v", e)})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{Err: errors.New("no messages in input")})
			return
		}
		last := input.Messages[len(input.Messages)-1]
		reply, err := a.session.Submit(ctx, last.Content)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("submit failed: %w", err)})
			return
		}
		if reply.Message == "" {
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					Message: schema.AssistantMessage(reply.Message, nil),
					Role:    schema.Assistant,
				},
			},
		})
	}()
	return iter
}
