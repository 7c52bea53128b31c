package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
)

// maxBodyBytes bounds how much of a response body is buffered.
const maxBodyBytes = 32 << 20

const userAgent = "sheetbridge/1.0"

// BasicClient implements ports.TransportClient with plain HTTP requests.
// It performs no authentication and no batching.
type BasicClient struct {
	client ports.HTTPClient
}

// NewBasicClient creates a BasicClient. A nil client uses http.DefaultClient.
func NewBasicClient(client ports.HTTPClient) *BasicClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &BasicClient{client: client}
}

// Do issues req and returns the response whatever its status.
func (c *BasicClient) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	return do(ctx, c.client, req, nil)
}

// TokenClient implements ports.TransportClient and authenticates every
// request with a bearer token.
type TokenClient struct {
	client ports.HTTPClient
	token  string
}

// NewTokenClient creates a TokenClient. A nil client uses http.DefaultClient.
func NewTokenClient(client ports.HTTPClient, token string) *TokenClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenClient{client: client, token: token}
}

// Do issues req with an Authorization header.
func (c *TokenClient) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	return do(ctx, c.client, req, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+c.token)
	})
}

func do(ctx context.Context, client ports.HTTPClient, req ports.Request, decorate func(*http.Request)) (*ports.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := buildRequest(ctx, method, req)
	if err != nil {
		return nil, &domain.TransportFailure{Method: method, URI: req.URI, Err: err}
	}
	httpReq.Header.Set("User-Agent", userAgent)
	if decorate != nil {
		decorate(httpReq)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportFailure{Method: method, URI: req.URI, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportFailure{Method: method, URI: req.URI, Err: fmt.Errorf("read body: %w", err)}
	}

	return &ports.Response{
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}, nil
}

func buildRequest(ctx context.Context, method string, req ports.Request) (*http.Request, error) {
	u, err := url.Parse(req.URI)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}

	values := url.Values{}
	for k, v := range req.Params {
		values.Set(k, v)
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		q := u.Query()
		for k, v := range values {
			q[k] = v
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, method, u.String(), nil)
	default:
		httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return httpReq, nil
	}
}
