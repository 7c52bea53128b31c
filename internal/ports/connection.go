package ports

import (
	"context"

	"github.com/bft-labs/sheetbridge/internal/domain"
)

// Connection is one live client connection.
type Connection interface {
	// ID identifies the connection in logs.
	ID() string

	// ReadMessage blocks until the next message arrives.
	// Returns io.EOF once the peer has closed the connection and a
	// *domain.DecodeError for a frame that was not a valid message.
	ReadMessage(ctx context.Context) (domain.Message, error)

	// WriteMessage sends msg to the peer. Safe for concurrent use.
	WriteMessage(ctx context.Context, msg domain.Message) error

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// ConnectionHandler is invoked once per inbound connection.
type ConnectionHandler func(conn Connection)

// ConnectionListener is the host capability that delivers inbound
// connections to registered handlers.
type ConnectionListener interface {
	OnConnect(handler ConnectionHandler)
}
