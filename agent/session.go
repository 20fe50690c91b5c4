// Package agent runs the travel planning conversation: it collects trip
// slots turn by turn, dispatches a generation request once they are
// complete, and follows its progress stream.
package agent

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tbxark/travelpilot/command"
	"github.com/tbxark/travelpilot/dialogue"
	"github.com/tbxark/travelpilot/patch"
	"github.com/tbxark/travelpilot/progress"
	"github.com/tbxark/travelpilot/slot"
	"github.com/tbxark/travelpilot/types"
)

// Session owns one conversation. All state is mutated by a single loop
// goroutine; public methods post closures to it and readers see immutable
// snapshots.
type Session struct {
	extractor  slot.Extractor
	dispatcher Dispatcher
	stream     *progress.Client

	dialogue    dialogue.Generator
	commands    command.Parser
	patcher     patch.Generator
	archive     PlanArchive
	checkpoints *CheckpointStore
	spec        TripSpec
	phrases     *dialogue.Phrases
	trimmer     Trimmer
	earlyAttach bool
	greeting    bool

	ctx       context.Context
	cancel    context.CancelFunc
	ops       chan func()
	quit      chan struct{}
	closeOnce sync.Once
	snap      atomic.Pointer[Snapshot]

	// Owned by the loop goroutine.
	st loopState
}

type loopState struct {
	phase     types.Phase
	loading   bool
	slots     types.TravelSlots
	messages  []types.ChatMessage
	progress  []types.ProgressEvent
	itinerary types.Itinerary
	completed bool

	// pending is the local id of the dispatch awaiting its response.
	pending string
	// bound is the request id whose progress frames are accepted.
	bound      string
	earlyBound bool
	// streamDone is set when an early-attached stream ends before the
	// dispatch response arrives.
	streamDone bool

	// epoch changes on Reset and Restore so a Submit that straddles one
	// drops its result.
	epoch int

	watchers    map[int]chan *Snapshot
	nextWatcher int
}

type Option func(*Session)

// WithLocale selects the phrase table used for the session's own messages.
func WithLocale(locale string) Option {
	return func(s *Session) { s.phrases = dialogue.PhrasesFor(locale) }
}

// WithEarlyAttach binds the progress stream to the local request id before
// the dispatch is sent, for backends that stream while the POST is pending.
func WithEarlyAttach(enabled bool) Option {
	return func(s *Session) { s.earlyAttach = enabled }
}

// WithHistoryLimit caps the chat history sent with a generation request.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.trimmer = KeepLastNTrimmer{N: n} }
}

func WithGreeting(enabled bool) Option {
	return func(s *Session) { s.greeting = enabled }
}

// WithDialogueGenerator replaces the fixed missing-fields prompt.
func WithDialogueGenerator(g dialogue.Generator) Option {
	return func(s *Session) { s.dialogue = g }
}

// WithCommandParser lets inputs such as "start over" act on the session
// instead of being read as trip details.
func WithCommandParser(p command.Parser) Option {
	return func(s *Session) { s.commands = p }
}

// WithPatchGenerator enables Revise.
func WithPatchGenerator(g patch.Generator) Option {
	return func(s *Session) { s.patcher = g }
}

func WithPlanArchive(a PlanArchive) Option {
	return func(s *Session) { s.archive = a }
}

func WithCheckpoints(store *CheckpointStore) Option {
	return func(s *Session) { s.checkpoints = store }
}

func WithTripSpec(spec TripSpec) Option {
	return func(s *Session) { s.spec = spec }
}

// NewSession starts the session loop. stream may be nil, in which case a
// dispatch finishes as soon as its response arrives.
func NewSession(extractor slot.Extractor, dispatcher Dispatcher, stream *progress.Client, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		extractor:  extractor,
		dispatcher: dispatcher,
		stream:     stream,
		spec:       StandardTripSpec{},
		phrases:    dialogue.PhrasesFor("en"),
		ctx:        ctx,
		cancel:     cancel,
		ops:        make(chan func()),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.st = s.freshState()
	s.st.watchers = map[int]chan *Snapshot{}
	s.publish()
	go s.loop()
	return s
}

func (s *Session) freshState() loopState {
	st := loopState{
		phase: types.PhaseIdle,
		slots: types.NewTravelSlots(),
	}
	if s.greeting {
		st.messages = []types.ChatMessage{types.NewChatMessage(types.RoleAssistant, s.phrases.Greeting)}
	}
	return st
}

func (s *Session) loop() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			for id, ch := range s.st.watchers {
				close(ch)
				delete(s.st.watchers, id)
			}
			return
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn()
	}
	select {
	case s.ops <- op:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// post queues fn from a network goroutine without waiting for it.
func (s *Session) post(fn func()) {
	select {
	case s.ops <- fn:
	case <-s.quit:
	}
}

// Close stops the loop and releases the progress stream.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.stream != nil {
			s.stream.Detach()
		}
		close(s.quit)
	})
	return nil
}

// publish must run on the loop.
func (s *Session) publish() {
	snap := &Snapshot{
		Phase:     s.st.phase,
		Loading:   s.st.loading,
		Slots:     s.st.slots.Clone(),
		Messages:  slices.Clip(s.st.messages),
		Progress:  slices.Clip(s.st.progress),
		Itinerary: s.st.itinerary,
		RequestID: s.st.bound,
		Completed: s.st.completed,
	}
	s.snap.Store(snap)
	for _, ch := range s.st.watchers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so the watcher always sees the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Session) appendMessage(role types.Role, content string) {
	s.st.messages = append(s.st.messages, types.NewChatMessage(role, content))
}

func (s *Session) Snapshot() *Snapshot {
	return s.snap.Load()
}

func (s *Session) CurrentSlots() types.TravelSlots {
	return s.snap.Load().Slots.Clone()
}

func (s *Session) Messages() []types.ChatMessage {
	return slices.Clone(s.snap.Load().Messages)
}

func (s *Session) ProgressEvents() []types.ProgressEvent {
	return slices.Clone(s.snap.Load().Progress)
}

func (s *Session) IsLoading() bool {
	return s.snap.Load().Loading
}

func (s *Session) Phase() types.Phase {
	return s.snap.Load().Phase
}

func (s *Session) Itinerary() types.Itinerary {
	return s.snap.Load().Itinerary
}

// Watch delivers the latest snapshot after every change until ctx ends or
// the session closes. Intermediate snapshots may be skipped.
func (s *Session) Watch(ctx context.Context) (<-chan *Snapshot, error) {
	ch := make(chan *Snapshot, 1)
	var id int
	if err := s.do(ctx, func() {
		id = s.st.nextWatcher
		s.st.nextWatcher++
		s.st.watchers[id] = ch
		ch <- s.snap.Load()
	}); err != nil {
		return nil, err
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-s.quit:
			return
		}
		s.post(func() {
			if w, ok := s.st.watchers[id]; ok {
				close(w)
				delete(s.st.watchers, id)
			}
		})
	}()
	slog.Debug("Watcher registered", "id", id)
	return ch, nil
}
