package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/travelpilot/types"
)

const DefaultGraceWindow = 2 * time.Second

// Transport opens the raw event stream of a request.
type Transport interface {
	OpenProgress(ctx context.Context, requestID string) (io.ReadCloser, error)
}

type CloseReason string

const (
	CloseSuccess          CloseReason = "success"
	CloseApplicationError CloseReason = "application_error"
	CloseTransportError   CloseReason = "transport_error"
	CloseEOF              CloseReason = "eof"
	CloseSuperseded       CloseReason = "superseded"
	CloseCancelled        CloseReason = "cancelled"
)

// Client keeps at most one binding open. Attaching a new request id cancels
// the previous binding.
type Client struct {
	transport Transport
	grace     time.Duration

	mu      sync.Mutex
	current *Binding
}

type Option func(*Client)

// WithGraceWindow sets how long the stream stays open after a success event.
func WithGraceWindow(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.grace = d
		}
	}
}

func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{transport: transport, grace: DefaultGraceWindow}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Binding is one attached progress stream.
type Binding struct {
	RequestID string

	stream     *schema.StreamReader[types.ProgressEvent]
	cancel     context.CancelFunc
	superseded atomic.Bool
	done       chan struct{}
	reason     CloseReason
	err        error
}

// Stream yields the decoded events. It ends with io.EOF after a terminal
// event, or with the transport error that broke the connection.
func (b *Binding) Stream() *schema.StreamReader[types.ProgressEvent] {
	return b.stream
}

// Done is closed once the connection is released.
func (b *Binding) Done() <-chan struct{} {
	return b.done
}

// Reason is valid after Done is closed.
func (b *Binding) Reason() CloseReason {
	<-b.done
	return b.reason
}

func (b *Binding) Err() error {
	<-b.done
	return b.err
}

func (b *Binding) Cancel() {
	b.cancel()
}

// Attach opens the stream of requestID and releases whatever was bound before.
func (c *Client) Attach(ctx context.Context, requestID string) *Binding {
	ctx, cancel := context.WithCancel(ctx)
	sr, sw := schema.Pipe[types.ProgressEvent](16)
	b := &Binding{
		RequestID: requestID,
		stream:    sr,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	prev := c.current
	c.current = b
	c.mu.Unlock()
	if prev != nil {
		prev.superseded.Store(true)
		prev.cancel()
	}

	go c.run(ctx, b, sw)
	return b
}

// Current returns the bound request id, or "" when nothing is bound.
func (c *Client) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.RequestID
}

// Detach cancels the current binding, if any.
func (c *Client) Detach() {
	c.mu.Lock()
	b := c.current
	c.current = nil
	c.mu.Unlock()
	if b != nil {
		b.cancel()
	}
}

func (c *Client) release(b *Binding) {
	c.mu.Lock()
	if c.current == b {
		c.current = nil
	}
	c.mu.Unlock()
}

type frame struct {
	ev  types.ProgressEvent
	err error
}

func (c *Client) run(ctx context.Context, b *Binding, sw *schema.StreamWriter[types.ProgressEvent]) {
	logger := slog.With("request_id", b.RequestID)
	defer func() {
		b.cancel()
		sw.Close()
		c.release(b)
		logger.Debug("Progress stream released", "reason", b.reason)
		close(b.done)
	}()
	cancelled := func() CloseReason {
		if b.superseded.Load() {
			return CloseSuperseded
		}
		return CloseCancelled
	}

	body, err := c.transport.OpenProgress(ctx, b.RequestID)
	if err != nil {
		if ctx.Err() != nil {
			b.reason = cancelled()
			return
		}
		logger.Warn("Progress stream transport failure", "error", err)
		b.reason, b.err = CloseTransportError, err
		sw.Send(types.ProgressEvent{}, err)
		return
	}
	defer body.Close()

	frames := make(chan frame)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		dec := NewDecoder(body)
		for {
			ev, err := dec.Next()
			select {
			case frames <- frame{ev: ev, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var grace <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			b.reason = cancelled()
			return
		case <-grace:
			logger.Info("Progress stream finished")
			b.reason = CloseSuccess
			return
		case f := <-frames:
			if f.err != nil {
				switch {
				case ctx.Err() != nil:
					b.reason = cancelled()
				case errors.Is(f.err, io.EOF) && grace != nil:
					// The server hung up after success; the window still runs.
					select {
					case <-grace:
						logger.Info("Progress stream finished")
						b.reason = CloseSuccess
					case <-ctx.Done():
						b.reason = cancelled()
					}
				case errors.Is(f.err, io.EOF):
					b.reason = CloseEOF
				default:
					logger.Warn("Progress stream transport failure", "error", f.err)
					b.reason, b.err = CloseTransportError, f.err
					sw.Send(types.ProgressEvent{}, f.err)
				}
				return
			}
			if closed := sw.Send(f.ev, nil); closed {
				b.reason = CloseCancelled
				return
			}
			switch f.ev.Type {
			case types.EventSuccess:
				if grace == nil {
					timer := time.NewTimer(c.grace)
					defer timer.Stop()
					grace = timer.C
				}
			case types.EventError:
				logger.Warn("Progress stream reported error", "message", f.ev.Message)
				b.reason = CloseApplicationError
				return
			}
		}
	}
}
