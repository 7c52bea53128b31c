package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
)

const twoSheetFeed = `{"feed":{"entry":[
 {"id":{"$t":"https://spreadsheets.google.com/feeds/worksheets/abc123/private/full/od6"},
  "updated":{"$t":"2024-01-02T03:04:05.000Z"},
  "title":{"$t":"Pages"},
  "gs$rowCount":{"$t":"100"},"gs$colCount":{"$t":"20"},
  "link":[{"rel":"http://schemas.google.com/spreadsheets/2006#listfeed","href":"https://example/list/od6"},
          {"rel":"http://schemas.google.com/spreadsheets/2006#cellsfeed","href":"https://example/cells/od6"}]},
 {"id":{"$t":"https://spreadsheets.google.com/feeds/worksheets/abc123/private/full/od7"},
  "title":{"$t":"Annotations"},
  "gs$rowCount":{"$t":"5"},"gs$colCount":{"$t":"3"}}
]}}`

// fakeTransport answers every request with the configured response.
type fakeTransport struct {
	mu     sync.Mutex
	status int
	body   string
	err    error
	calls  atomic.Int32
	last   ports.Request
	gate   chan struct{}
}

func newFakeTransport(status int, body string) *fakeTransport {
	return &fakeTransport{status: status, body: body}
}

func (f *fakeTransport) set(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body, f.err = status, body, nil
}

func (f *fakeTransport) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	gate := f.gate
	status, body, err := f.status, f.body, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &domain.TransportFailure{Method: req.Method, URI: req.URI, Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}
	return &ports.Response{Status: status, Body: []byte(body)}, nil
}

func (f *fakeTransport) Calls() int { return int(f.calls.Load()) }

func (f *fakeTransport) LastRequest() ports.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// namedClient is a distinguishable TransportClient for resolver tests.
type namedClient struct{ name string }

func (namedClient) Do(context.Context, ports.Request) (*ports.Response, error) {
	return nil, errors.New("not used")
}

// fakeConn is an in-memory ports.Connection fed from a channel.
type fakeConn struct {
	id      string
	in      chan domain.Message
	mu      sync.Mutex
	out     []domain.Message
	written chan domain.Message
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{
		id:      id,
		in:      make(chan domain.Message, 16),
		written: make(chan domain.Message, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) ReadMessage(ctx context.Context) (domain.Message, error) {
	select {
	case msg, ok := <-c.in:
		if !ok {
			return domain.Message{}, io.EOF
		}
		if msg.Type == "" {
			return domain.Message{}, &domain.DecodeError{What: "message"}
		}
		return msg, nil
	case <-c.closed:
		return domain.Message{}, domain.ErrConnectionClosed
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

func (c *fakeConn) WriteMessage(_ context.Context, msg domain.Message) error {
	select {
	case <-c.closed:
		return domain.ErrConnectionClosed
	default:
	}
	c.mu.Lock()
	c.out = append(c.out, msg)
	c.mu.Unlock()
	c.written <- msg
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeHost records handlers registered through OnConnect.
type fakeHost struct {
	mu       sync.Mutex
	handlers []ports.ConnectionHandler
}

func (h *fakeHost) OnConnect(handler ports.ConnectionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handler)
}

func (h *fakeHost) connect(conn ports.Connection) {
	h.mu.Lock()
	handlers := append([]ports.ConnectionHandler(nil), h.handlers...)
	h.mu.Unlock()
	for _, handler := range handlers {
		handler(conn)
	}
}

func (h *fakeHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

// processorFunc adapts a function to ports.Processor.
type processorFunc func(ctx context.Context, msg domain.Message) (domain.Message, error)

func (f processorFunc) Process(ctx context.Context, msg domain.Message) (domain.Message, error) {
	return f(ctx, msg)
}
