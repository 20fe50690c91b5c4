package itinerary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	endpointChat     = "/chat"
	endpointProgress = "/progress/"
	endpointPlans    = "/plans"
)

// ErrStatus is wrapped by every error caused by a non-2xx response.
var ErrStatus = errors.New("unexpected HTTP status")

// Client talks to the Itinerary Service over HTTP.
type Client struct {
	client *client.Client
	server string
	token  string
}

type clientOptions struct {
	dialTimeout time.Duration
	idleTimeout time.Duration
	token       string
}

type Option func(*clientOptions)

func WithDialTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.dialTimeout = d }
}

func WithMaxIdleConnDuration(d time.Duration) Option {
	return func(o *clientOptions) { o.idleTimeout = d }
}

// WithToken sets the bearer token sent to the plan archive.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

func NewClient(server string, opts ...Option) (*Client, error) {
	options := clientOptions{
		dialTimeout: 10 * time.Second,
		idleTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	normalized, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// The standard dialer is required for streamed response bodies.
	c, err := client.NewClient(
		client.WithDialTimeout(options.dialTimeout),
		client.WithMaxIdleConnDuration(options.idleTimeout),
		client.WithResponseBodyStream(true),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &Client{client: c, server: normalized, token: options.token}, nil
}

// normalizeServerURL adds a missing scheme and drops the trailing slash. The
// path is kept because the service is usually mounted under a prefix.
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q", server)
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}

func (c *Client) BaseURL() string {
	return c.server
}

// Chat posts one generation request and waits for the acknowledgement.
func (c *Client) Chat(ctx context.Context, chatReq *ChatRequest) (*ChatResponse, error) {
	bodyBytes, err := sonic.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	raw, err := c.do(ctx, consts.MethodPost, endpointChat, bodyBytes, false)
	if err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	resp.Raw = raw
	slog.Debug("Chat acknowledged", "request_id", chatReq.RequestID, "backend_request_id", resp.RequestID)
	return &resp, nil
}

// do sends a request and returns the full response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, body []byte, auth bool) ([]byte, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(method)
	req.SetRequestURI(c.server + path)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(body)
	}
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	// Body() drains the stream when response streaming is on.
	raw := append([]byte(nil), resp.Body()...)
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return nil, fmt.Errorf("%s %s: %w %d: %s", method, path, ErrStatus, status, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// OpenProgress opens the server-sent event stream of one request. The caller
// must Close the returned body.
func (c *Client) OpenProgress(ctx context.Context, requestID string) (io.ReadCloser, error) {
	// Not returned to the pool: Close may run while another goroutine is
	// still blocked reading the stream.
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.server + endpointProgress + url.PathEscape(requestID))
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.SetConnectionClose(true)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("progress request failed: %w", err)
	}
	if status := resp.StatusCode(); status != consts.StatusOK {
		body := strings.TrimSpace(string(resp.Body()))
		_ = resp.CloseBodyStream()
		return nil, fmt.Errorf("progress stream: %w %d: %s", ErrStatus, status, body)
	}
	stream := resp.BodyStream()
	if stream == nil {
		return nil, errors.New("progress stream: body stream is nil")
	}
	return &progressBody{Reader: stream, resp: resp}, nil
}

type progressBody struct {
	io.Reader
	resp *protocol.Response
	once sync.Once
	err  error
}

func (b *progressBody) Close() error {
	b.once.Do(func() {
		b.err = b.resp.CloseBodyStream()
	})
	return b.err
}
