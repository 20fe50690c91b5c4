package agent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/types"
)

// Update overwrites every slot that is set in update. Unlike extraction it
// may replace existing values.
func (s *Session) Update(ctx context.Context, update types.TravelSlots) error {
	update.DateRange = ""
	var err error
	if doErr := s.do(ctx, func() {
		var ops []patch.Operation
		ops, err = patch.GeneratePatchesFromInitial(s.st.slots, update)
		if err != nil {
			err = fmt.Errorf("failed to diff slots: %w", err)
			return
		}
		err = s.applyOps(ops)
	}); doErr != nil {
		return doErr
	}
	return err
}

// ApplyPatch applies RFC 6902 operations to the slots.
func (s *Session) ApplyPatch(ctx context.Context, ops []patch.Operation) error {
	var err error
	if doErr := s.do(ctx, func() { err = s.applyOps(ops) }); doErr != nil {
		return doErr
	}
	return err
}

// ClearSlot unsets one slot, named by its JSON field name.
func (s *Session) ClearSlot(ctx context.Context, field string) error {
	path := "/" + strings.TrimPrefix(field, "/")
	return s.ApplyPatch(ctx, []patch.Operation{{Op: patch.OperationRemove, Path: path}})
}

// applyOps must run on the loop. The edit is all or nothing.
func (s *Session) applyOps(ops []patch.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	next, err := patch.ApplySlotEdits(s.st.slots, ops, s.spec.AllowedPaths())
	if err != nil {
		return err
	}
	s.st.slots = next
	slog.Debug("Applied slot patch", "ops", ops, "slots", next)
	s.publish()
	return nil
}

func (s *Session) AddVibe(ctx context.Context, vibe string) error {
	var err error
	if doErr := s.do(ctx, func() {
		switch {
		case !types.IsKnownVibe(vibe):
			err = fmt.Errorf("%w: %q", ErrUnknownVibe, vibe)
		case slices.Contains(s.st.slots.Vibes, vibe):
		case len(s.st.slots.Vibes) >= types.MaxVibes:
			err = fmt.Errorf("%w: at most %d", ErrTooManyVibes, types.MaxVibes)
		default:
			s.st.slots.Vibes = append(slices.Clone(s.st.slots.Vibes), vibe)
			s.publish()
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) RemoveVibe(ctx context.Context, vibe string) error {
	return s.do(ctx, func() {
		i := slices.Index(s.st.slots.Vibes, vibe)
		if i < 0 {
			return
		}
		s.st.slots.Vibes = slices.Delete(slices.Clone(s.st.slots.Vibes), i, i+1)
		s.publish()
	})
}

// SetDateRange sets both dates and, when the span is a valid trip length,
// the number of days.
func (s *Session) SetDateRange(ctx context.Context, start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidDates
	}
	return s.do(ctx, func() {
		s.st.slots.StartDate = types.Ptr(start)
		s.st.slots.EndDate = types.Ptr(end)
		s.st.slots.DateRange = types.FormatDateRange(s.st.slots.StartDate, s.st.slots.EndDate)
		if days := types.DaysBetween(start, end); days >= types.MinDays && days <= types.MaxDays {
			s.st.slots.NumDays = types.Ptr(days)
		}
		s.publish()
	})
}

// SetParty records the party breakdown and writes its total to num_people.
func (s *Session) SetParty(ctx context.Context, party types.Party) error {
	total := party.Total()
	if party.Adults < 0 || party.Children < 0 || party.Infants < 0 || total < types.MinPeople || total > types.MaxPeople {
		return fmt.Errorf("%w: %d", ErrInvalidParty, total)
	}
	return s.do(ctx, func() {
		s.st.slots.Party = types.Ptr(party)
		s.st.slots.NumPeople = types.Ptr(total)
		s.publish()
	})
}

// Reset drops the whole conversation, including any request in flight.
func (s *Session) Reset(ctx context.Context) error {
	return s.do(ctx, func() {
		if s.stream != nil && s.st.bound != "" {
			s.stream.Detach()
		}
		watchers, next, epoch := s.st.watchers, s.st.nextWatcher, s.st.epoch
		s.st = s.freshState()
		s.st.watchers, s.st.nextWatcher, s.st.epoch = watchers, next, epoch+1
		slog.Info("Session reset")
		s.publish()
	})
}

// Revise asks the patch generator to turn a free-text correction into slot
// edits and applies them.
func (s *Session) Revise(ctx context.Context, instruction string) ([]patch.Operation, error) {
	if s.patcher == nil {
		return nil, fmt.Errorf("revise: patch generator %w", ErrNotConfigured)
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInput
	}
	schema, err := s.spec.JsonSchema()
	if err != nil {
		return nil, err
	}
	args, err := s.patcher.GeneratePatch(ctx, &patch.Request{
		Instruction:   instruction,
		CurrentState:  s.CurrentSlots(),
		StateSchema:   schema,
		AllowedPaths:  s.spec.AllowedPaths().List(),
		FieldGuidance: s.spec.FieldGuide(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate patch: %w", err)
	}
	if err := s.ApplyPatch(ctx, args.Ops); err != nil {
		return nil, err
	}
	return args.Ops, nil
}

// Checkpoint saves the session under the state key of ctx.
func (s *Session) Checkpoint(ctx context.Context) error {
	if s.checkpoints == nil {
		return fmt.Errorf("checkpoint: store %w", ErrNotConfigured)
	}
	if err := s.checkpoints.Save(ctx, checkpointFrom(s.Snapshot())); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Restore loads the checkpoint of ctx. It reports false when there is none.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.checkpoints == nil {
		return false, fmt.Errorf("restore: store %w", ErrNotConfigured)
	}
	cp, ok, err := s.checkpoints.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !ok {
		return false, nil
	}
	var busy bool
	if err := s.do(ctx, func() {
		if s.st.loading {
			busy = true
			return
		}
		s.st.epoch++
		s.st.phase = cp.Phase
		if !s.st.phase.AcceptsInput() {
			s.st.phase = types.PhaseIdle
		}
		s.st.slots = cp.Slots
		s.st.messages = cp.Messages
		s.st.progress = cp.Progress
		s.st.itinerary = cp.Itinerary
		s.st.completed = cp.Completed
		s.publish()
	}); err != nil {
		return false, err
	}
	if busy {
		return false, ErrBusy
	}
	return true, nil
}

// SavePlan stores the current itinerary in the plan archive.
func (s *Session) SavePlan(ctx context.Context, title string) (*itinerary.Plan, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("save plan: archive %w", ErrNotConfigured)
	}
	snap := s.Snapshot()
	if title == "" {
		title = planTitle(snap)
	}
	plan := &itinerary.Plan{
		Title:      title,
		TravelInfo: itinerary.TravelInfoFromSlots(snap.Slots),
		Vibes:      snap.Slots.Vibes,
		Itinerary:  snap.Itinerary,
		Messages:   outboundHistory(snap.Messages, nil),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	saved, err := s.archive.SavePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return saved, nil
}

func planTitle(snap *Snapshot) string {
	if o := snap.Itinerary.TripOverview; o != nil && o.Title != "" {
		return o.Title
	}
	if d := snap.Slots.Destination; d != nil {
		return "Trip to " + *d
	}
	return "Untitled trip"
}
