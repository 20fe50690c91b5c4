package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbxark/travelpilot/command"
	"github.com/tbxark/travelpilot/types"
)

// runCommand reports whether text was a conversation command. Commands the
// session cannot serve fall through to the normal turn, and so does
// everything typed while a generation is in flight, which the turn gate
// then rejects with ErrBusy.
func (s *Session) runCommand(ctx context.Context, text string) (*Reply, bool, error) {
	if s.commands == nil {
		return nil, false, nil
	}
	snap := s.Snapshot()
	if snap.Loading {
		return nil, false, nil
	}
	cmd, err := s.commands.ParseCommand(ctx, &command.Request{
		Input:      text,
		LastPrompt: lastPrompt(snap.Messages),
		Slots:      snap.Slots,
		Locale:     s.phrases.Locale,
	})
	if err != nil {
		slog.Debug("Command parsing failed", "error", err)
		return nil, false, nil
	}

	switch cmd {
	case command.Reset:
		slog.Info("Conversation reset by user")
		if err := s.Reset(ctx); err != nil {
			return nil, true, err
		}
		return &Reply{Message: s.phrases.Greeting}, true, nil
	case command.Save:
		if s.archive == nil || snap.Itinerary.IsEmpty() {
			return nil, false, nil
		}
		plan, err := s.SavePlan(ctx, "")
		if err != nil {
			return nil, true, err
		}
		msg := fmt.Sprintf(s.phrases.PlanSaved, plan.Title)
		var busy bool
		if err := s.do(ctx, func() {
			if s.st.loading {
				busy = true
				return
			}
			s.appendMessage(types.RoleUser, text)
			s.appendMessage(types.RoleSystem, msg)
			s.publish()
		}); err != nil {
			return nil, true, err
		}
		if busy {
			return nil, true, ErrBusy
		}
		return &Reply{Message: msg}, true, nil
	default:
		return nil, false, nil
	}
}

func lastPrompt(msgs []types.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != types.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
