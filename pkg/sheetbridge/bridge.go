package sheetbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	httpAdapter "github.com/bft-labs/sheetbridge/internal/adapters/http"
	"github.com/bft-labs/sheetbridge/internal/adapters/ws"
	"github.com/bft-labs/sheetbridge/internal/app"
	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// Bridge serves spreadsheet worksheet lists to websocket clients.
// Use New() to create an instance, then Start() to accept connections.
type Bridge struct {
	config    Config
	opts      options
	logger    ports.Logger
	registry  *app.ClientRegistry
	store     *app.DocumentStore
	processor *app.DocumentProcessor
	service   *app.ChannelService
	metrics   *app.Metrics
	gatherer  prometheus.Gatherer
	plugins   []Plugin

	// configured holds the clients built from Config tokens. Installed
	// tokens are layered over it and never remove its scopes.
	configured map[string]ports.TransportClient

	mu       sync.RWMutex
	listener *ws.Listener
	cancel   context.CancelFunc
	started  []Plugin
}

// New creates a Bridge in StateStopped. Tokens in cfg are registered
// immediately so FetchWorksheets works before Start.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := app.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	registry := app.NewClientRegistry()
	httpClient := o.httpClient
	resolver := app.NewResolver(app.ScopeSpreadsheets,
		func() ports.TransportClient { return httpAdapter.NewBasicClient(httpClient) },
		registry, registry.Default())

	docOpts := []app.DocumentOption{
		app.WithFeedBaseURL(cfg.FeedBaseURL),
		app.WithDocumentLogger(o.logger),
		app.WithDocumentMetrics(metrics),
	}
	if cfg.SingleFlight {
		docOpts = append(docOpts, app.WithSingleFlight())
	}
	store, err := app.NewDocumentStore(cfg.CacheSize, func(id string) *app.Document {
		return app.NewDocument(id, resolver, docOpts...)
	})
	if err != nil {
		return nil, err
	}

	var emitter app.EventEmitter
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	b := &Bridge{
		config:    cfg,
		opts:      o,
		logger:    o.logger,
		registry:  registry,
		store:     store,
		processor: app.NewDocumentProcessor(store, o.logger),
		service:   app.NewChannelService(o.logger, metrics, emitter),
		metrics:   metrics,
		gatherer:  reg,
		plugins:   o.plugins,
	}
	b.configured = b.tokenClients(cfg.AuthToken, cfg.ScopedTokens)
	b.registry.Replace(b.configured)
	return b, nil
}

// Start initializes plugins and begins accepting channel connections.
// It returns ErrAlreadyRunning unless the bridge is stopped or crashed.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s := b.service.State(); s != app.StateStopped && s != app.StateCrashed {
		return domain.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	pluginCfg := PluginConfig{
		FeedBaseURL: b.config.FeedBaseURL,
		Logger:      b.logger,
		Clients:     b,
	}
	started := make([]Plugin, 0, len(b.plugins))
	for _, p := range b.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			b.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = shutdownPlugins(context.Background(), started, b.logger)
			return err
		}
		b.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
		started = append(started, p)
	}

	// Each run gets its own listener so handlers from an earlier run never
	// see new connections.
	var listenerOpts []ws.ListenerOption
	if b.opts.checkOrigin != nil {
		listenerOpts = append(listenerOpts, ws.WithCheckOrigin(b.opts.checkOrigin))
	}
	listener := ws.NewListener(b.logger, listenerOpts...)
	if err := b.service.Start(runCtx, b.processor, listener); err != nil {
		cancel()
		_ = shutdownPlugins(context.Background(), started, b.logger)
		return err
	}

	b.listener = listener
	b.cancel = cancel
	b.started = started
	return nil
}

// Stop closes every channel, waiting up to the configured shutdown timeout,
// then shuts plugins down in reverse order. Plugin errors are combined with
// the channel shutdown error.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.service.Stop(b.config.ShutdownTimeout)
	if errors.Is(err, domain.ErrNotRunning) {
		return err
	}

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.listener = nil

	err = multierr.Append(err, shutdownPlugins(context.Background(), b.started, b.logger))
	b.started = nil
	return err
}

// Status returns the current lifecycle state.
func (b *Bridge) Status() State {
	return State(b.service.State())
}

// InstallTokens implements ClientInstaller. The installed tokens replace
// the previous installation and are layered over the Config tokens: a scope
// present in both uses the installed token, and Config scopes absent from
// the installation stay registered.
func (b *Bridge) InstallTokens(defaultToken string, scoped map[string]string) {
	installed := b.tokenClients(defaultToken, scoped)
	clients := make(map[string]ports.TransportClient, len(b.configured)+len(installed))
	for scope, c := range b.configured {
		clients[scope] = c
	}
	for scope, c := range installed {
		clients[scope] = c
	}
	b.registry.Replace(clients)
	b.logger.Debug("transport clients installed",
		ports.Int("installed", len(installed)),
		ports.Int("scopes", len(clients)))
}

func (b *Bridge) tokenClients(defaultToken string, scoped map[string]string) map[string]ports.TransportClient {
	clients := make(map[string]ports.TransportClient, len(scoped)+1)
	for scope, token := range scoped {
		if scope != "" && token != "" {
			clients[scope] = httpAdapter.NewTokenClient(b.opts.httpClient, token)
		}
	}
	if defaultToken != "" {
		clients[app.ScopeDefault] = httpAdapter.NewTokenClient(b.opts.httpClient, defaultToken)
	}
	return clients
}

// Scopes lists the scopes that currently have a registered client.
func (b *Bridge) Scopes() []string {
	return b.registry.Scopes()
}

// FetchWorksheets returns the worksheet list of document id, fetching it
// on first use.
func (b *Bridge) FetchWorksheets(ctx context.Context, id string) ([]Worksheet, error) {
	worksheets, err := b.store.Get(id).FetchWorksheets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Worksheet, 0, len(worksheets))
	for i, w := range worksheets {
		out = append(out, w.Summary(i))
	}
	return out, nil
}

// OpenChannels returns the number of live channels.
func (b *Bridge) OpenChannels() int {
	return len(b.service.Channels())
}

// Handler returns the HTTP surface of the bridge:
// /channel (websocket), /metrics and /health.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/channel", b.serveChannel)
	mux.Handle("/metrics", promhttp.HandlerFor(b.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", b.serveHealth)
	return mux
}

func (b *Bridge) serveChannel(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	listener := b.listener
	b.mu.RUnlock()
	if listener == nil {
		http.Error(w, "channel service not started", http.StatusServiceUnavailable)
		return
	}
	listener.ServeHTTP(w, r)
}

func (b *Bridge) serveHealth(w http.ResponseWriter, _ *http.Request) {
	status := b.Status()
	code := http.StatusOK
	if status != StateRunning {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   status.String(),
		"channels": b.OpenChannels(),
		"scopes":   b.Scopes(),
	})
}

func shutdownPlugins(ctx context.Context, plugins []Plugin, logger ports.Logger) error {
	var err error
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if shutdownErr := p.Shutdown(ctx); shutdownErr != nil {
			logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
			err = multierr.Append(err, shutdownErr)
			continue
		}
		logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
	}
	return err
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}
