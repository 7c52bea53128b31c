package cliconfig

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFeedBaseURL is the root of the spreadsheet feeds API.
const DefaultFeedBaseURL = "https://spreadsheets.google.com/feeds"

// DefaultListenAddr is where `sheetbridge serve` listens unless configured.
const DefaultListenAddr = "127.0.0.1:8787"

// Config holds CLI configuration for sheetbridge.
type Config struct {
	ListenAddr  string
	FeedBaseURL string

	AuthToken       string
	ScopedTokens    map[string]string
	CredentialsFile string

	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration
	CacheSize       int
	SingleFlight    bool

	LogLevel string
	Debug    bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      DefaultListenAddr,
		FeedBaseURL:     DefaultFeedBaseURL,
		HTTPTimeout:     15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		CacheSize:       128,
		LogLevel:        "info",
		AuthToken:       os.Getenv("SHEETBRIDGE_AUTH_TOKEN"),
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen address %q: %w", c.ListenAddr, err)
	}

	if c.FeedBaseURL == "" {
		c.FeedBaseURL = DefaultFeedBaseURL
	}
	c.FeedBaseURL = strings.TrimRight(c.FeedBaseURL, "/")
	u, err := url.Parse(c.FeedBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("feed url %q must be an absolute URL", c.FeedBaseURL)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	for scope, token := range c.ScopedTokens {
		if scope == "" || token == "" {
			return fmt.Errorf("scoped token entries need both a scope and a token")
		}
	}

	return nil
}

// Redacted returns a copy of c safe to log.
func (c Config) Redacted() Config {
	out := c
	if out.AuthToken != "" {
		out.AuthToken = "*****"
	}
	if len(c.ScopedTokens) > 0 {
		out.ScopedTokens = make(map[string]string, len(c.ScopedTokens))
		for scope := range c.ScopedTokens {
			out.ScopedTokens[scope] = "*****"
		}
	}
	return out
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// setScopes merges scope tokens unless the scope flag was set.
// Entries already present in dst are overwritten.
func (s *configSetter) setScopes(flag string, value map[string]string, dst *map[string]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	if *dst == nil {
		*dst = make(map[string]string, len(value))
	}
	for k, v := range value {
		(*dst)[k] = v
	}
}
