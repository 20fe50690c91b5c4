package progress

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbxark/travelpilot/types"
)

func TestDecoder(t *testing.T) {
	t.Parallel()
	raw := ": keep-alive\n" +
		"event: progress\n" +
		"data: {\"type\":\"info\",\"message\":\"searching\"}\n\n" +
		"data: not json\n\n" +
		"data: {\"type\":\"bogus\",\"message\":\"x\"}\n\n" +
		"data: {\"type\":\"detail\",\r\n" +
		"data: \"message\":\"two lines\"}\r\n\r\n" +
		"id: 7\n" +
		"data: {\"type\":\"success\",\"message\":\"done\"}"

	dec := NewDecoder(strings.NewReader(raw))
	var got []types.ProgressEvent
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}
	want := []types.ProgressEvent{
		{Type: types.EventInfo, Message: "searching"},
		{Type: types.EventDetail, Message: "two lines"},
		{Type: types.EventSuccess, Message: "done"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].Type != want[i].Type || got[i].Message != want[i].Message {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// pipeTransport hands out one pipe per request id so a test can write frames
// at its own pace.
type pipeTransport struct {
	mu      sync.Mutex
	writers map[string]*io.PipeWriter
	opened  chan string
	err     error
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{writers: map[string]*io.PipeWriter{}, opened: make(chan string, 8)}
}

func (p *pipeTransport) OpenProgress(ctx context.Context, requestID string) (io.ReadCloser, error) {
	if p.err != nil {
		return nil, p.err
	}
	r, w := io.Pipe()
	p.mu.Lock()
	p.writers[requestID] = w
	p.mu.Unlock()
	p.opened <- requestID
	return r, nil
}

func (p *pipeTransport) send(id, frame string) error {
	p.mu.Lock()
	w := p.writers[id]
	p.mu.Unlock()
	_, err := io.WriteString(w, frame)
	return err
}

func (p *pipeTransport) waitOpen(t *testing.T) string {
	t.Helper()
	select {
	case id := <-p.opened:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("stream was never opened")
		return ""
	}
}

func waitDone(t *testing.T, b *Binding, within time.Duration) {
	t.Helper()
	select {
	case <-b.Done():
	case <-time.After(within):
		t.Fatalf("binding %s still open after %s", b.RequestID, within)
	}
}

func TestAttach_GraceWindowAfterSuccess(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	c := NewClient(tr, WithGraceWindow(100*time.Millisecond))
	b := c.Attach(context.Background(), "r1")
	tr.waitOpen(t)

	go func() {
		_ = tr.send("r1", "data: {\"type\":\"success\",\"message\":\"ok\"}\n\n")
		// Frames inside the grace window are still delivered.
		_ = tr.send("r1", "data: {\"type\":\"detail\",\"message\":\"late\"}\n\n")
	}()

	sr := b.Stream()
	var got []string
	for {
		ev, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		got = append(got, ev.Message)
	}
	if strings.Join(got, ",") != "ok,late" {
		t.Errorf("events = %v", got)
	}
	waitDone(t, b, time.Second)
	if b.Reason() != CloseSuccess {
		t.Errorf("reason = %s, want success", b.Reason())
	}
	if c.Current() != "" {
		t.Errorf("binding not released: %q", c.Current())
	}
}

// readerTransport serves a fixed body that ends right after its frames.
type readerTransport struct{ body string }

func (r readerTransport) OpenProgress(ctx context.Context, requestID string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(r.body)), nil
}

func TestAttach_GraceWindowSurvivesServerClose(t *testing.T) {
	t.Parallel()
	grace := 200 * time.Millisecond
	c := NewClient(readerTransport{body: "data: {\"type\":\"success\",\"message\":\"ok\"}\n\n"}, WithGraceWindow(grace))
	start := time.Now()
	b := c.Attach(context.Background(), "r1")

	ev, err := b.Stream().Recv()
	if err != nil || ev.Type != types.EventSuccess {
		t.Fatalf("Recv = %+v, %v", ev, err)
	}
	waitDone(t, b, 2*time.Second)
	if elapsed := time.Since(start); elapsed < grace {
		t.Errorf("binding closed after %s, want at least %s", elapsed, grace)
	}
	if b.Reason() != CloseSuccess {
		t.Errorf("reason = %s, want success", b.Reason())
	}
}

func TestAttach_CancelDuringGraceAfterServerClose(t *testing.T) {
	t.Parallel()
	c := NewClient(readerTransport{body: "data: {\"type\":\"success\",\"message\":\"ok\"}\n\n"}, WithGraceWindow(time.Hour))
	b := c.Attach(context.Background(), "r1")
	if _, err := b.Stream().Recv(); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	b.Cancel()
	waitDone(t, b, time.Second)
	if b.Reason() != CloseCancelled {
		t.Errorf("reason = %s, want cancelled", b.Reason())
	}
}

func TestAttach_ErrorClosesImmediately(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	c := NewClient(tr, WithGraceWindow(time.Hour))
	b := c.Attach(context.Background(), "r1")
	tr.waitOpen(t)
	go func() { _ = tr.send("r1", "data: {\"type\":\"error\",\"message\":\"no flights\"}\n\n") }()

	ev, err := b.Stream().Recv()
	if err != nil || ev.Type != types.EventError {
		t.Fatalf("Recv = %+v, %v", ev, err)
	}
	waitDone(t, b, time.Second)
	if b.Reason() != CloseApplicationError {
		t.Errorf("reason = %s, want application_error", b.Reason())
	}
}

func TestAttach_TransportError(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	tr.err = errors.New("connection refused")
	c := NewClient(tr)
	b := c.Attach(context.Background(), "r1")

	_, err := b.Stream().Recv()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Recv err = %v, want transport error", err)
	}
	waitDone(t, b, time.Second)
	if b.Reason() != CloseTransportError || b.Err() == nil {
		t.Errorf("reason = %s err = %v", b.Reason(), b.Err())
	}
}

func TestAttach_BrokenStream(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	c := NewClient(tr)
	b := c.Attach(context.Background(), "r1")
	tr.waitOpen(t)

	tr.mu.Lock()
	w := tr.writers["r1"]
	tr.mu.Unlock()
	_ = w.CloseWithError(errors.New("reset by peer"))

	_, err := b.Stream().Recv()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Recv err = %v, want transport error", err)
	}
	if b.Reason() != CloseTransportError {
		t.Errorf("reason = %s", b.Reason())
	}
}

func TestAttach_EOFWithoutTerminalEvent(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	c := NewClient(tr)
	b := c.Attach(context.Background(), "r1")
	tr.waitOpen(t)
	tr.mu.Lock()
	w := tr.writers["r1"]
	tr.mu.Unlock()
	_ = w.Close()

	if _, err := b.Stream().Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("Recv err = %v, want EOF", err)
	}
	if b.Reason() != CloseEOF {
		t.Errorf("reason = %s, want eof", b.Reason())
	}
}

func TestAttach_SupersedesPrevious(t *testing.T) {
	t.Parallel()
	tr := newPipeTransport()
	c := NewClient(tr)
	first := c.Attach(context.Background(), "r1")
	tr.waitOpen(t)
	second := c.Attach(context.Background(), "r2")
	tr.waitOpen(t)

	waitDone(t, first, time.Second)
	if first.Reason() != CloseSuperseded {
		t.Errorf("first reason = %s, want superseded", first.Reason())
	}
	if c.Current() != "r2" {
		t.Errorf("current = %q, want r2", c.Current())
	}

	c.Detach()
	waitDone(t, second, time.Second)
	if second.Reason() != CloseCancelled {
		t.Errorf("second reason = %s, want cancelled", second.Reason())
	}
}
