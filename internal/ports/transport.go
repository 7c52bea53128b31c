package ports

import (
	"context"
	"net/http"
)

// Request describes a single call through a TransportClient.
type Request struct {
	// URI is the absolute endpoint URI.
	URI string

	// Method is the HTTP method; empty means GET.
	Method string

	// Params are request parameters. GET requests carry them in the query
	// string; other methods send them as a form body.
	Params map[string]string
}

// Response is what a TransportClient got back from the remote side.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Body is the raw response body.
	Body []byte

	// Header holds the response headers, if the transport exposes them.
	Header http.Header
}

// TransportClient issues requests against a remote service.
// Any response that arrived is returned with a nil error regardless of its
// status; errors are reserved for requests that produced no response.
type TransportClient interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// ClientProvider offers a TransportClient registered for a scope.
type ClientProvider interface {
	// ClientFor returns the client for scope and true, or nil and false.
	ClientFor(scope string) (TransportClient, bool)
}

// HTTPClient is the subset of *http.Client the transport adapters need.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
