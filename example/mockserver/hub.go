package main

import (
	"sync"
	"time"

	"github.com/tbxark/travelpilot/types"
)

// progressHub buffers progress events per request id until a subscriber
// drains them, so a client may attach before or after the chat reply.
type progressHub struct {
	mu     sync.Mutex
	queues map[string]chan types.ProgressEvent
}

func newProgressHub() *progressHub {
	return &progressHub{queues: map[string]chan types.ProgressEvent{}}
}

func (h *progressHub) queue(id string) chan types.ProgressEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	q, ok := h.queues[id]
	if !ok {
		q = make(chan types.ProgressEvent, 64)
		h.queues[id] = q
	}
	return q
}

func (h *progressHub) publish(id string, typ types.EventType, message string) {
	ev := types.ProgressEvent{Type: typ, Message: message, Timestamp: time.Now().Format(time.RFC3339)}
	select {
	case h.queue(id) <- ev:
	default:
		// full
	}
}

func (h *progressHub) release(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.queues, id)
}
