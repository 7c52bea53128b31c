// Package credwatcher keeps a bridge's transport clients in sync with a
// credentials file. The file is loaded when the bridge starts and reloaded
// whenever it changes on disk.
package credwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/sheetbridge/pkg/log"
	"github.com/bft-labs/sheetbridge/pkg/sheetbridge"
)

// Plugin watches a credentials file and installs its tokens.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration

	logger   sheetbridge.Logger
	clients  sheetbridge.ClientInstaller
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// Config holds configuration options for the credentials watcher.
type Config struct {
	// Path is the credentials file. An empty path disables the plugin.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a credentials watcher with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "credwatcher"
}

// Initialize loads the credentials file once and starts watching it.
// A file that exists but cannot be parsed fails initialization; a missing
// file is picked up when it is created.
func (p *Plugin) Initialize(ctx context.Context, cfg sheetbridge.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.clients = cfg.Clients
	p.mu.Unlock()

	if p.path == "" || p.clients == nil {
		p.logger.Warn("credentials watcher disabled: no credentials file configured")
		return nil
	}

	if err := p.reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory so editors that replace the file by rename are seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.ctx = watchCtx
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("credentials watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops watching. Installed clients are left in place.
func (p *Plugin) Shutdown(context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

// Reloads returns how many times credentials were installed.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("credentials watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	ctx := p.ctx
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		if err := p.reload(); err != nil {
			p.logger.Warn("credentials reload failed, keeping previous clients",
				log.String("path", p.path),
				log.Err(err))
		}
	})
}

func (p *Plugin) reload() error {
	creds, err := LoadCredentials(p.path)
	if err != nil {
		return err
	}
	p.clients.InstallTokens(creds.DefaultToken, creds.Scopes)

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()

	p.logger.Info("credentials loaded",
		log.String("path", p.path),
		log.Int("scopes", len(creds.Scopes)),
		log.Bool("default_token", creds.DefaultToken != ""))
	return nil
}

// Ensure Plugin implements sheetbridge.Plugin.
var _ sheetbridge.Plugin = (*Plugin)(nil)
