package sheetbridge

import (
	"context"

	"github.com/bft-labs/sheetbridge/internal/app"
	"github.com/bft-labs/sheetbridge/internal/domain"
)

// State is the lifecycle state of a Bridge.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes one lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives lifecycle events. Calls are synchronous.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// Worksheet is the wire summary of one worksheet.
type Worksheet = domain.WorksheetSummary

// Errors returned by the bridge.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// RemoteFetchError reports a non-200 response from the feed endpoint.
type RemoteFetchError = domain.RemoteFetchError

// TransportFailure reports a request that produced no response.
type TransportFailure = domain.TransportFailure

// ClientInstaller layers token-based clients over a Bridge's configured ones.
type ClientInstaller interface {
	// InstallTokens registers defaultToken under the default scope and one
	// client per scoped entry. Clients from a previous installation are
	// dropped; clients built from Config tokens are kept unless a scope is
	// overridden.
	InstallTokens(defaultToken string, scoped map[string]string)
}

// PluginConfig is handed to every plugin on Initialize.
type PluginConfig struct {
	FeedBaseURL string
	Logger      Logger
	Clients     ClientInstaller
}

// Plugin extends a Bridge with background work bound to its lifetime.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}
