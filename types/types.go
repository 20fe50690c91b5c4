package types

import "time"

type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseExtracting    Phase = "extracting"
	PhaseDispatching   Phase = "dispatching"
	PhaseStreaming     Phase = "streaming"
)

// AcceptsInput reports whether a submit may start a new turn from this phase.
func (p Phase) AcceptsInput() bool {
	return p == PhaseIdle || p == PhaseAwaitingInput || p == ""
}

type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of the visible conversation log. Entries are never
// mutated after they are appended.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type EventType string

const (
	EventInfo    EventType = "info"
	EventDetail  EventType = "detail"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

func (t EventType) Valid() bool {
	switch t {
	case EventInfo, EventDetail, EventSuccess, EventError:
		return true
	default:
		return false
	}
}

// Terminal reports whether the event ends a progress stream.
func (t EventType) Terminal() bool {
	return t == EventSuccess || t == EventError
}

type ProgressEvent struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Timestamp string    `json:"timestamp,omitempty"`
}
