package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
)

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

// echo replies to each message with the same id and a pong type.
func echo(conn ports.Connection) {
	go func() {
		defer conn.Close()
		ctx := context.Background()
		for {
			msg, err := conn.ReadMessage(ctx)
			if err != nil {
				var de *domain.DecodeError
				if errors.As(err, &de) {
					_ = conn.WriteMessage(ctx, domain.ErrorReply(domain.Message{}, err, 0))
					continue
				}
				return
			}
			_ = conn.WriteMessage(ctx, domain.Message{ID: msg.ID, Type: domain.TypePong})
		}
	}()
}

func TestListener_RoundTrip(t *testing.T) {
	l := NewListener(nil)
	l.OnConnect(echo)
	ts := httptest.NewServer(l)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, wsURL(ts))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if err := c.WriteMessage(ctx, domain.Message{ID: "1", Type: domain.TypePing}); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	reply, err := c.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if reply.ID != "1" || reply.Type != domain.TypePong {
		t.Errorf("reply = %+v, want id 1 pong", reply)
	}
}

func TestListener_NoHandlers(t *testing.T) {
	ts := httptest.NewServer(NewListener(nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestConn_InvalidFrameIsDecodeError(t *testing.T) {
	l := NewListener(nil)
	l.OnConnect(echo)
	ts := httptest.NewServer(l)
	defer ts.Close()

	raw, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer raw.Close()

	if err := raw.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write error = %v", err)
	}
	_ = raw.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply domain.Message
	if err := raw.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}
	if reply.Type != domain.TypeError || !strings.Contains(reply.Error, "decode message") {
		t.Errorf("reply = %+v, want decode error reply", reply)
	}
}

func TestConn_PeerCloseIsEOF(t *testing.T) {
	got := make(chan error, 1)
	l := NewListener(nil)
	l.OnConnect(func(conn ports.Connection) {
		go func() {
			_, err := conn.ReadMessage(context.Background())
			got <- err
			conn.Close()
		}()
	})
	ts := httptest.NewServer(l)
	defer ts.Close()

	c, err := Dial(context.Background(), wsURL(ts))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	select {
	case err := <-got:
		if !errors.Is(err, io.EOF) {
			t.Errorf("server read error = %v, want io.EOF", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never observed close")
	}
}

func TestConn_OversizedFrameIsRejected(t *testing.T) {
	got := make(chan error, 1)
	l := NewListener(nil, WithReadLimit(64))
	l.OnConnect(func(conn ports.Connection) {
		go func() {
			_, err := conn.ReadMessage(context.Background())
			got <- err
			conn.Close()
		}()
	})
	ts := httptest.NewServer(l)
	defer ts.Close()

	raw, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer raw.Close()

	frame := `{"id":"1","type":"ping","payload":"` + strings.Repeat("x", 256) + `"}`
	if err := raw.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write error = %v", err)
	}

	select {
	case err := <-got:
		if !errors.Is(err, websocket.ErrReadLimit) {
			t.Errorf("server read error = %v, want websocket.ErrReadLimit", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never rejected the frame")
	}
}
