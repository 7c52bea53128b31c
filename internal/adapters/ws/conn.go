// Package ws carries channel connections over websockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/sheetbridge/internal/domain"
)

const (
	defaultWriteTimeout = 10 * time.Second

	// DefaultReadLimit caps the size of one incoming frame.
	DefaultReadLimit int64 = 1 << 20
)

// Conn implements ports.Connection over a gorilla websocket with one JSON
// message per text frame.
type Conn struct {
	id           string
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established websocket. Frames larger than readLimit
// fail the read with websocket.ErrReadLimit and close the connection.
// Non-positive values select the defaults.
func NewConn(id string, ws *websocket.Conn, writeTimeout time.Duration, readLimit int64) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	ws.SetReadLimit(readLimit)
	return &Conn{id: id, ws: ws, writeTimeout: writeTimeout}
}

// Dial opens a client-side connection to a channel endpoint.
func Dial(ctx context.Context, url string) (*Conn, error) {
	wsConn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(wsConn.LocalAddr().String(), wsConn, 0, 0), nil
}

// ID returns the remote address the connection was accepted from.
func (c *Conn) ID() string { return c.id }

// ReadMessage reads the next frame and decodes it as a message.
func (c *Conn) ReadMessage(ctx context.Context) (domain.Message, error) {
	var msg domain.Message
	if err := ctx.Err(); err != nil {
		return msg, err
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
			errors.Is(err, net.ErrClosed) {
			return msg, io.EOF
		}
		return msg, err
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Message{}, &domain.DecodeError{What: "message", Err: err}
	}
	if msg.Type == "" {
		return domain.Message{}, &domain.DecodeError{What: "message", Err: errors.New("missing type")}
	}
	return msg, nil
}

// WriteMessage encodes msg into a single text frame.
func (c *Conn) WriteMessage(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame, best effort, and closes the socket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
