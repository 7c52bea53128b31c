package sheetbridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/sheetbridge/internal/app"
	"github.com/bft-labs/sheetbridge/internal/domain"
)

// DefaultFeedBaseURL is the root of the spreadsheet feeds API.
const DefaultFeedBaseURL = app.DefaultFeedBaseURL

// Config holds the configuration for a Bridge.
type Config struct {
	// FeedBaseURL is the root the worksheet feed path is appended to.
	FeedBaseURL string

	// AuthToken, when set, registers a bearer-token client for the default scope.
	AuthToken string

	// ScopedTokens registers a bearer-token client per scope.
	ScopedTokens map[string]string

	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration

	// CacheSize is the number of documents kept in memory.
	CacheSize int

	// SingleFlight collapses concurrent first fetches of one document.
	SingleFlight bool

	// ShutdownTimeout bounds how long Stop waits for open channels.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FeedBaseURL:     DefaultFeedBaseURL,
		HTTPTimeout:     15 * time.Second,
		CacheSize:       128,
		ShutdownTimeout: app.ShutdownTimeout,
	}
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.FeedBaseURL == "" {
		c.FeedBaseURL = d.FeedBaseURL
	}
	c.FeedBaseURL = strings.TrimRight(c.FeedBaseURL, "/")
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	if c.CacheSize == 0 {
		c.CacheSize = d.CacheSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.HTTPTimeout < 0:
		return fmt.Errorf("%w: negative http timeout", domain.ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: negative cache size", domain.ErrInvalidConfig)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: negative shutdown timeout", domain.ErrInvalidConfig)
	}
	for scope, token := range c.ScopedTokens {
		if scope == "" || token == "" {
			return fmt.Errorf("%w: scoped token needs a scope and a token", domain.ErrInvalidConfig)
		}
	}
	return nil
}
