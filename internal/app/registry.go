package app

import (
	"sort"
	"sync"

	"github.com/bft-labs/sheetbridge/internal/ports"
)

// ClientRegistry holds TransportClients registered under scope names.
// It is safe for concurrent use; registrations may be replaced while
// documents are resolving against it.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]ports.TransportClient
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]ports.TransportClient)}
}

// Register installs client under scope, replacing any previous one.
// A nil client removes the registration.
func (r *ClientRegistry) Register(scope string, client ports.TransportClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client == nil {
		delete(r.clients, scope)
		return
	}
	r.clients[scope] = client
}

// Replace swaps the whole registration set at once.
func (r *ClientRegistry) Replace(clients map[string]ports.TransportClient) {
	next := make(map[string]ports.TransportClient, len(clients))
	for scope, c := range clients {
		if c != nil {
			next[scope] = c
		}
	}
	r.mu.Lock()
	r.clients = next
	r.mu.Unlock()
}

// ClientFor implements ports.ClientProvider for scope-specific lookups.
func (r *ClientRegistry) ClientFor(scope string) (ports.TransportClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[scope]
	return c, ok
}

// Scopes lists registered scopes in sorted order.
func (r *ClientRegistry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for s := range r.clients {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Default returns a provider that ignores the requested scope and offers
// the client registered under ScopeDefault.
func (r *ClientRegistry) Default() ports.ClientProvider {
	return defaultProvider{registry: r}
}

type defaultProvider struct {
	registry *ClientRegistry
}

func (p defaultProvider) ClientFor(string) (ports.TransportClient, bool) {
	return p.registry.ClientFor(ScopeDefault)
}
