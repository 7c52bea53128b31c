package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr      string            `toml:"listen_addr"`
	FeedBaseURL     string            `toml:"feed_url"`
	AuthToken       string            `toml:"auth_token"`
	CredentialsFile string            `toml:"credentials_file"`
	HTTPTimeout     string            `toml:"http_timeout"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	CacheSize       int               `toml:"cache_size"`
	SingleFlight    *bool             `toml:"single_flight"`
	LogLevel        string            `toml:"log_level"`
	Debug           *bool             `toml:"debug"`
	Scopes          map[string]string `toml:"scopes"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.sheetbridge/config.toml, or "" when the
// home directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sheetbridge", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("feed-url", fc.FeedBaseURL, &cfg.FeedBaseURL)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)
	s.setString("credentials", fc.CredentialsFile, &cfg.CredentialsFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setInt("cache-size", fc.CacheSize, &cfg.CacheSize)

	s.setBool("single-flight", fc.SingleFlight, &cfg.SingleFlight)
	s.setBool("debug", fc.Debug, &cfg.Debug)

	s.setScopes("scope-token", fc.Scopes, &cfg.ScopedTokens)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
