package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("sheetbridge: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("sheetbridge: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("sheetbridge: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("sheetbridge: invalid configuration")

	// ErrNotLoaded is returned when worksheets are read from a document
	// whose feed has not been fetched successfully yet.
	ErrNotLoaded = errors.New("sheetbridge: document not loaded")

	// ErrIndexOutOfRange is returned for a worksheet index outside the loaded feed.
	ErrIndexOutOfRange = errors.New("sheetbridge: worksheet index out of range")

	// ErrNoProcessor is returned when a channel is built without a processor.
	ErrNoProcessor = errors.New("sheetbridge: no processor installed")

	// ErrUnknownMessage is returned by the processor for unrecognized message types.
	ErrUnknownMessage = errors.New("sheetbridge: unknown message type")

	// ErrConnectionClosed is returned by connections read after close.
	ErrConnectionClosed = errors.New("sheetbridge: connection closed")
)

// RemoteFetchError reports a non-200 response from the remote document endpoint.
type RemoteFetchError struct {
	Status int
	Body   []byte
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch failed: status %d: %s", e.Status, truncate(e.Body, 256))
}

// TransportFailure reports a request that never produced a response.
type TransportFailure struct {
	Method string
	URI    string
	Err    error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Method, e.URI, e.Err)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// DecodeError reports a payload that could not be decoded.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "decode " + e.What
	}
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
