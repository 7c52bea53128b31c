// Package sheetbridge serves remote spreadsheet worksheet lists to browser
// clients over per-connection message channels.
//
// Example usage:
//
//	cfg := sheetbridge.DefaultConfig()
//	cfg.AuthToken = "your-token"
//	b, err := sheetbridge.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(http.ListenAndServe(":8787", b.Handler()))
//
// The embeddable API lives in pkg/sheetbridge; this package re-exports it.
package sheetbridge

import (
	"github.com/bft-labs/sheetbridge/pkg/sheetbridge"
)

// Config holds the configuration for a Bridge.
type Config = sheetbridge.Config

// Bridge serves worksheet lists to websocket clients.
type Bridge = sheetbridge.Bridge

// Option configures optional behavior of a Bridge.
type Option = sheetbridge.Option

// Worksheet is the wire summary of one worksheet.
type Worksheet = sheetbridge.Worksheet

// New creates a Bridge. See pkg/sheetbridge.New.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	return sheetbridge.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return sheetbridge.DefaultConfig()
}

// DefaultFeedBaseURL is the root of the spreadsheet feeds API.
const DefaultFeedBaseURL = sheetbridge.DefaultFeedBaseURL
