package agent

import (
	"context"
	"slices"
	"time"

	"github.com/tbxark/travelpilot/types"
)

type stateKeyContext struct{}

// WithStateKey names the conversation that checkpoints of ctx belong to.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

func StateKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(stateKeyContext{}).(string)
	return key, ok
}

// Checkpoint is the persisted part of a session. Nothing about an in-flight
// request is kept: a restored session is never loading.
type Checkpoint struct {
	Slots     types.TravelSlots     `json:"slots"`
	Messages  []types.ChatMessage   `json:"messages"`
	Progress  []types.ProgressEvent `json:"progress,omitempty"`
	Itinerary types.Itinerary       `json:"itinerary"`
	Completed bool                  `json:"completed"`
	Phase     types.Phase           `json:"phase"`
	SavedAt   time.Time             `json:"saved_at"`
}

func checkpointFrom(s *Snapshot) Checkpoint {
	phase := s.Phase
	if !phase.AcceptsInput() {
		phase = types.PhaseIdle
	}
	return Checkpoint{
		Slots:     s.Slots.Clone(),
		Messages:  slices.Clone(s.Messages),
		Progress:  slices.Clone(s.Progress),
		Itinerary: s.Itinerary,
		Completed: s.Completed,
		Phase:     phase,
		SavedAt:   time.Now().UTC(),
	}
}

const checkpointNamespace = "travelpilot:checkpoint"

// CheckpointStore keeps one checkpoint per state key.
type CheckpointStore struct {
	store Store[Checkpoint]
}

func NewCheckpointStore(core Cache[Checkpoint]) *CheckpointStore {
	return &CheckpointStore{store: NewStore(core, checkpointNamespace, StateKeyFromContext)}
}

func NewMemoryCheckpointStore() *CheckpointStore {
	return NewCheckpointStore(NewMemoryCache[Checkpoint](0))
}

func (c *CheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	return c.store.Set(ctx, cp)
}

func (c *CheckpointStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	return c.store.Get(ctx)
}

func (c *CheckpointStore) Remove(ctx context.Context) error {
	return c.store.Del(ctx)
}
