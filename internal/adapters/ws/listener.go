package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// Listener upgrades HTTP requests to websockets and hands every accepted
// connection to the registered handlers. It implements ports.ConnectionListener.
type Listener struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	readLimit    int64
	logger       log.Logger

	mu       sync.RWMutex
	handlers []ports.ConnectionHandler
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithCheckOrigin replaces the origin check. The default accepts any origin,
// since browser extensions connect from their own extension origin.
func WithCheckOrigin(check func(r *http.Request) bool) ListenerOption {
	return func(l *Listener) {
		l.upgrader.CheckOrigin = check
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) ListenerOption {
	return func(l *Listener) {
		l.writeTimeout = d
	}
}

// WithReadLimit caps the size of one incoming frame, DefaultReadLimit otherwise.
func WithReadLimit(n int64) ListenerOption {
	return func(l *Listener) {
		l.readLimit = n
	}
}

// NewListener creates a Listener.
func NewListener(logger log.Logger, opts ...ListenerOption) *Listener {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	l := &Listener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
		readLimit:    DefaultReadLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnConnect registers handler for future connections.
func (l *Listener) OnConnect(handler ports.ConnectionHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, handler)
}

// ServeHTTP upgrades the request and dispatches the connection.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	handlers := append([]ports.ConnectionHandler(nil), l.handlers...)
	l.mu.RUnlock()

	if len(handlers) == 0 {
		http.Error(w, "channel service not started", http.StatusServiceUnavailable)
		return
	}

	wsConn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		l.logger.Warn("websocket upgrade failed",
			log.String("remote", r.RemoteAddr),
			log.Err(err))
		return
	}

	conn := NewConn(r.RemoteAddr, wsConn, l.writeTimeout, l.readLimit)
	for _, h := range handlers {
		h(conn)
	}
}
