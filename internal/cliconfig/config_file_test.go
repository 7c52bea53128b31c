package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				ListenAddr:   "0.0.0.0:9000",
				FeedBaseURL:  "http://proxy/feeds",
				HTTPTimeout:  "5s",
				CacheSize:    16,
				SingleFlight: &trueVal,
				Scopes:       map[string]string{"spreadsheets": "tok"},
			},
			changed: map[string]bool{},
			expected: Config{
				ListenAddr:   "0.0.0.0:9000",
				FeedBaseURL:  "http://proxy/feeds",
				HTTPTimeout:  5 * time.Second,
				CacheSize:    16,
				SingleFlight: true,
				ScopedTokens: map[string]string{"spreadsheets": "tok"},
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ListenAddr: "0.0.0.0:9000",
				LogLevel:   "debug",
			},
			changed: map[string]bool{"listen": true},
			initial: Config{ListenAddr: "127.0.0.1:1"},
			expected: Config{
				ListenAddr: "127.0.0.1:1",
				LogLevel:   "debug",
			},
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{HTTPTimeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "zero values leave config untouched",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{CacheSize: 4, Debug: true},
			expected:   Config{CacheSize: 4, Debug: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}

			if cfg.ListenAddr != tt.expected.ListenAddr {
				t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, tt.expected.ListenAddr)
			}
			if cfg.FeedBaseURL != tt.expected.FeedBaseURL {
				t.Errorf("FeedBaseURL = %v, want %v", cfg.FeedBaseURL, tt.expected.FeedBaseURL)
			}
			if cfg.HTTPTimeout != tt.expected.HTTPTimeout {
				t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, tt.expected.HTTPTimeout)
			}
			if cfg.CacheSize != tt.expected.CacheSize {
				t.Errorf("CacheSize = %v, want %v", cfg.CacheSize, tt.expected.CacheSize)
			}
			if cfg.SingleFlight != tt.expected.SingleFlight {
				t.Errorf("SingleFlight = %v, want %v", cfg.SingleFlight, tt.expected.SingleFlight)
			}
			if cfg.Debug != tt.expected.Debug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.expected.Debug)
			}
			if cfg.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expected.LogLevel)
			}
			if len(cfg.ScopedTokens) != len(tt.expected.ScopedTokens) {
				t.Errorf("ScopedTokens = %v, want %v", cfg.ScopedTokens, tt.expected.ScopedTokens)
			}
			for k, v := range tt.expected.ScopedTokens {
				if cfg.ScopedTokens[k] != v {
					t.Errorf("ScopedTokens[%s] = %v, want %v", k, cfg.ScopedTokens[k], v)
				}
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
listen_addr = "0.0.0.0:8787"
feed_url = "http://localhost:9000/feeds"
http_timeout = "5s"
cache_size = 32
single_flight = true

[scopes]
spreadsheets = "sheet-token"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.ListenAddr != "0.0.0.0:8787" {
		t.Errorf("ListenAddr = %v, want 0.0.0.0:8787", fc.ListenAddr)
	}
	if fc.FeedBaseURL != "http://localhost:9000/feeds" {
		t.Errorf("FeedBaseURL = %v", fc.FeedBaseURL)
	}
	if fc.HTTPTimeout != "5s" {
		t.Errorf("HTTPTimeout = %v, want 5s", fc.HTTPTimeout)
	}
	if fc.CacheSize != 32 {
		t.Errorf("CacheSize = %v, want 32", fc.CacheSize)
	}
	if fc.SingleFlight == nil || !*fc.SingleFlight {
		t.Errorf("SingleFlight = %v, want true", fc.SingleFlight)
	}
	if fc.Scopes["spreadsheets"] != "sheet-token" {
		t.Errorf("Scopes = %v", fc.Scopes)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
listen_addr = "127.0.0.1:1"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".sheetbridge") {
		t.Errorf("DefaultConfigPath() = %v, should contain .sheetbridge", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
