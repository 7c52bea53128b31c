package app

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// DefaultFeedBaseURL is the root of the spreadsheet feeds API.
const DefaultFeedBaseURL = "https://spreadsheets.google.com/feeds"

// FetchResult is the outcome of an asynchronous worksheet fetch.
type FetchResult struct {
	Worksheets []Worksheet
	Err        error
}

// Document is a lazily fetched view over one remote spreadsheet.
//
// The worksheet list is fetched on first use and cached for the lifetime of
// the Document; it is never refreshed or cleared. A failed fetch leaves the
// cache empty so the next call tries again.
//
// Overlapping FetchWorksheets calls made before the first one completes each
// issue their own request unless the Document was built WithSingleFlight.
type Document struct {
	id       string
	baseURL  string
	resolver *Resolver
	logger   ports.Logger
	metrics  *Metrics
	group    *singleflight.Group

	mu         sync.RWMutex
	client     ports.TransportClient
	worksheets []Worksheet
	loaded     bool
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithFeedBaseURL overrides DefaultFeedBaseURL.
func WithFeedBaseURL(base string) DocumentOption {
	return func(d *Document) {
		d.baseURL = strings.TrimRight(base, "/")
	}
}

// WithClient binds an explicit transport client.
func WithClient(client ports.TransportClient) DocumentOption {
	return func(d *Document) {
		d.client = client
	}
}

// WithDocumentLogger sets the logger.
func WithDocumentLogger(logger ports.Logger) DocumentOption {
	return func(d *Document) {
		d.logger = logger
	}
}

// WithDocumentMetrics records fetch outcomes on m.
func WithDocumentMetrics(m *Metrics) DocumentOption {
	return func(d *Document) {
		d.metrics = m
	}
}

// WithSingleFlight collapses overlapping fetches into one request. The
// shared request ignores the cancellation of whichever caller started it;
// each caller still stops waiting when its own context is done.
func WithSingleFlight() DocumentOption {
	return func(d *Document) {
		d.group = &singleflight.Group{}
	}
}

// NewDocument creates a Document for the spreadsheet id. The resolver picks
// the transport when no client is bound.
func NewDocument(id string, resolver *Resolver, opts ...DocumentOption) *Document {
	d := &Document{
		id:       id,
		baseURL:  DefaultFeedBaseURL,
		resolver: resolver,
		logger:   log.NoopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = NewResolver(ScopeSpreadsheets, nil)
	}
	return d
}

// ID returns the spreadsheet id.
func (d *Document) ID() string { return d.id }

// SetClient binds client for subsequent fetches.
func (d *Document) SetClient(client ports.TransportClient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.client = client
}

// Client returns the explicitly bound client, or nil.
func (d *Document) Client() ports.TransportClient {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.client
}

// Loaded reports whether the worksheet list has been fetched.
func (d *Document) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Worksheets returns the cached worksheet list, or ErrNotLoaded.
func (d *Document) Worksheets() ([]Worksheet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return nil, domain.ErrNotLoaded
	}
	return append([]Worksheet(nil), d.worksheets...), nil
}

// MustWorksheets is like Worksheets but panics before the first successful fetch.
func (d *Document) MustWorksheets() []Worksheet {
	ws, err := d.Worksheets()
	if err != nil {
		panic(err)
	}
	return ws
}

// Worksheet returns the cached worksheet at index i.
func (d *Document) Worksheet(i int) (Worksheet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return Worksheet{}, domain.ErrNotLoaded
	}
	if i < 0 || i >= len(d.worksheets) {
		return Worksheet{}, domain.ErrIndexOutOfRange
	}
	return d.worksheets[i], nil
}

// FetchWorksheets returns the worksheet list, fetching it on first use.
//
// A non-200 response fails with *domain.RemoteFetchError; a request that got
// no response fails with whatever the transport reported, normally
// *domain.TransportFailure. Neither is retried.
func (d *Document) FetchWorksheets(ctx context.Context) ([]Worksheet, error) {
	if ws, err := d.Worksheets(); err == nil {
		d.metrics.fetch("cached")
		return ws, nil
	}

	if d.group == nil {
		return d.fetch(ctx)
	}
	shared := context.WithoutCancel(ctx)
	ch := d.group.DoChan(d.id, func() (interface{}, error) {
		return d.fetch(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]Worksheet(nil), res.Val.([]Worksheet)...), nil
	case <-ctx.Done():
		return nil, &domain.TransportFailure{Method: http.MethodGet, URI: d.endpoint(), Err: ctx.Err()}
	}
}

// FetchWorksheetsAsync runs FetchWorksheets in a new goroutine. The returned
// channel receives exactly one FetchResult and is then closed.
func (d *Document) FetchWorksheetsAsync(ctx context.Context) <-chan FetchResult {
	out := make(chan FetchResult, 1)
	go func() {
		defer close(out)
		ws, err := d.FetchWorksheets(ctx)
		out <- FetchResult{Worksheets: ws, Err: err}
	}()
	return out
}

func (d *Document) endpoint() string {
	return d.baseURL + "/worksheets/" + url.PathEscape(d.id) + "/private/full"
}

func (d *Document) fetch(ctx context.Context) ([]Worksheet, error) {
	client := d.resolver.Resolve(d.Client())
	req := ports.Request{
		URI:    d.endpoint(),
		Method: http.MethodGet,
		Params: map[string]string{"alt": "json"},
	}

	start := time.Now()
	var res Result
	select {
	case res = <-NewExecution(client, req).Execute(ctx):
	case <-ctx.Done():
		res = Result{Err: &domain.TransportFailure{Method: req.Method, URI: req.URI, Err: ctx.Err()}}
	}

	if res.Err != nil {
		d.metrics.fetch("transport_error")
		d.logger.Warn("worksheet feed request failed",
			ports.String("document", d.id),
			ports.Err(res.Err))
		return nil, res.Err
	}

	if res.Response.Status != http.StatusOK {
		d.metrics.fetch("remote_error")
		d.logger.Warn("worksheet feed rejected",
			ports.String("document", d.id),
			ports.Int("status", res.Response.Status))
		return nil, &domain.RemoteFetchError{Status: res.Response.Status, Body: res.Response.Body}
	}

	entries, err := parseFeedEntries(res.Response.Body)
	if err != nil {
		d.metrics.fetch("decode_error")
		return nil, err
	}

	worksheets := make([]Worksheet, 0, len(entries))
	for _, e := range entries {
		worksheets = append(worksheets, NewWorksheet(e, client))
	}

	d.mu.Lock()
	if d.loaded {
		// An overlapping fetch won; keep the list readers may already hold.
		worksheets = d.worksheets
	} else {
		d.worksheets = worksheets
		d.loaded = true
	}
	d.mu.Unlock()

	d.metrics.fetch("fetched")
	d.logger.Debug("worksheet feed loaded",
		ports.String("document", d.id),
		ports.Int("worksheets", len(worksheets)),
		ports.Duration("took", time.Since(start)))

	return append([]Worksheet(nil), worksheets...), nil
}
