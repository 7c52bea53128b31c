package credwatcher

import "github.com/bft-labs/sheetbridge/pkg/sheetbridge"

// WithCredentialsWatcher returns a sheetbridge Option that keeps transport
// clients in sync with the credentials file in cfg.
//
// Usage:
//
//	b, err := sheetbridge.New(cfg,
//	    credwatcher.WithCredentialsWatcher(credwatcher.Config{
//	        Path:          "/etc/sheetbridge/credentials.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithCredentialsWatcher(cfg Config) sheetbridge.Option {
	return sheetbridge.WithPlugin(New(cfg))
}

// WithDefaultCredentialsWatcher watches path with default settings.
func WithDefaultCredentialsWatcher(path string) sheetbridge.Option {
	return WithCredentialsWatcher(DefaultConfig(path))
}
