package cliconfig

import (
	"os"
	"strings"
)

// ScopeEnvPrefix prefixes variables that register a token for one scope,
// e.g. SHEETBRIDGE_SCOPE_SPREADSHEETS=token.
const ScopeEnvPrefix = "SHEETBRIDGE_SCOPE_"

// ApplyEnvConfig applies configuration from environment variables (SHEETBRIDGE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("SHEETBRIDGE_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("feed-url", os.Getenv("SHEETBRIDGE_FEED_URL"), &cfg.FeedBaseURL)
	s.setString("auth-token", os.Getenv("SHEETBRIDGE_AUTH_TOKEN"), &cfg.AuthToken)
	s.setString("credentials", os.Getenv("SHEETBRIDGE_CREDENTIALS_FILE"), &cfg.CredentialsFile)
	s.setString("log-level", os.Getenv("SHEETBRIDGE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("timeout", os.Getenv("SHEETBRIDGE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("SHEETBRIDGE_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("cache-size", os.Getenv("SHEETBRIDGE_CACHE_SIZE"), &cfg.CacheSize); err != nil {
		return err
	}

	s.setBoolFromString("single-flight", os.Getenv("SHEETBRIDGE_SINGLE_FLIGHT"), &cfg.SingleFlight)
	s.setBoolFromString("debug", os.Getenv("SHEETBRIDGE_DEBUG"), &cfg.Debug)

	s.setScopes("scope-token", scopesFromEnv(os.Environ()), &cfg.ScopedTokens)

	return nil
}

func scopesFromEnv(environ []string) map[string]string {
	scopes := map[string]string{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, ScopeEnvPrefix) {
			continue
		}
		scope := strings.ToLower(strings.TrimPrefix(key, ScopeEnvPrefix))
		if scope != "" {
			scopes[scope] = value
		}
	}
	return scopes
}
