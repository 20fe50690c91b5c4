package agent

import (
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/types"
)

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepLastNTrimmer keeps the last N messages. N <= 0 keeps everything.
type KeepLastNTrimmer struct {
	N int
}

func (t KeepLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	if t.N <= 0 || len(history) <= t.N {
		return history
	}
	return history[len(history)-t.N:]
}

// toSchemaMessages maps the chat log onto the two roles the backend knows.
// Everything that is not the user speaks as the assistant.
func toSchemaMessages(msgs []types.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		if m.Role == types.RoleUser {
			out = append(out, schema.UserMessage(m.Content))
			continue
		}
		out = append(out, schema.AssistantMessage(m.Content, nil))
	}
	return out
}

func outboundHistory(msgs []types.ChatMessage, trimmer Trimmer) []itinerary.HistoryEntry {
	history := toSchemaMessages(msgs)
	if trimmer != nil {
		history = trimmer.Trim(history)
	}
	out := make([]itinerary.HistoryEntry, 0, len(history))
	for _, m := range history {
		out = append(out, itinerary.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return out
}
