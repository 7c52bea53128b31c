package app

import (
	"context"
	"errors"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
)

// Well-known registry scopes.
const (
	// ScopeSpreadsheets is the scope consulted for spreadsheet feeds.
	ScopeSpreadsheets = "spreadsheets"

	// ScopeDefault is the scope consulted when no scope-specific client exists.
	ScopeDefault = "default"
)

// FallbackFunc builds the client used when no provider has one.
type FallbackFunc func() ports.TransportClient

// Resolver picks a TransportClient for one scope.
// Resolution order is the explicit client, then each provider in the order
// given, then a freshly built fallback.
type Resolver struct {
	scope     string
	providers []ports.ClientProvider
	fallback  FallbackFunc
}

// NewResolver creates a Resolver for scope. A nil fallback resolves to a
// client whose every request fails with a TransportFailure.
func NewResolver(scope string, fallback FallbackFunc, providers ...ports.ClientProvider) *Resolver {
	return &Resolver{
		scope:     scope,
		providers: providers,
		fallback:  fallback,
	}
}

// Scope returns the scope this resolver looks up.
func (r *Resolver) Scope() string { return r.scope }

// Resolve returns preferred when it is set, otherwise the first client a
// provider offers, otherwise a new fallback client. It never returns nil.
// The fallback is not cached; callers that want to reuse it assign it back.
func (r *Resolver) Resolve(preferred ports.TransportClient) ports.TransportClient {
	if preferred != nil {
		return preferred
	}
	for _, p := range r.providers {
		if p == nil {
			continue
		}
		if c, ok := p.ClientFor(r.scope); ok && c != nil {
			return c
		}
	}
	if r.fallback != nil {
		if c := r.fallback(); c != nil {
			return c
		}
	}
	return unconfiguredClient{}
}

var errNoTransport = errors.New("no transport configured")

// unconfiguredClient is the last link of the chain when no fallback
// constructor was supplied.
type unconfiguredClient struct{}

func (unconfiguredClient) Do(_ context.Context, req ports.Request) (*ports.Response, error) {
	return nil, &domain.TransportFailure{Method: req.Method, URI: req.URI, Err: errNoTransport}
}
