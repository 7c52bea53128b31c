package app

import (
	"context"

	"github.com/bft-labs/sheetbridge/internal/ports"
)

// Result is the outcome of one Execution.
type Result struct {
	Response *ports.Response
	Err      error
}

// Execution is a prepared request that runs asynchronously.
type Execution struct {
	client ports.TransportClient
	req    ports.Request
}

// NewExecution binds req to client without sending it.
func NewExecution(client ports.TransportClient, req ports.Request) *Execution {
	return &Execution{client: client, req: req}
}

// Execute sends the request in a new goroutine. The returned channel
// receives exactly one Result and is then closed.
func (e *Execution) Execute(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		resp, err := e.client.Do(ctx, e.req)
		out <- Result{Response: resp, Err: err}
	}()
	return out
}
