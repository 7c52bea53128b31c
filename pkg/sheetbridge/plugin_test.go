package sheetbridge_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/sheetbridge/pkg/sheetbridge"
)

// orderLog records plugin calls across plugins.
type orderLog struct {
	mu    sync.Mutex
	calls []string
}

func (o *orderLog) add(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, s)
}

func (o *orderLog) all() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

type testPlugin struct {
	name        string
	log         *orderLog
	initErr     error
	shutdownErr error
	onInit      func(cfg sheetbridge.PluginConfig)
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) Initialize(_ context.Context, cfg sheetbridge.PluginConfig) error {
	p.log.add("init:" + p.name)
	if p.onInit != nil {
		p.onInit(cfg)
	}
	return p.initErr
}

func (p *testPlugin) Shutdown(context.Context) error {
	p.log.add("shutdown:" + p.name)
	return p.shutdownErr
}

func TestPlugins_Order(t *testing.T) {
	order := &orderLog{}
	b := newBridge(t, sheetbridge.DefaultConfig(),
		sheetbridge.WithPlugin(&testPlugin{name: "a", log: order}),
		sheetbridge.WithPlugin(&testPlugin{name: "b", log: order}),
	)

	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Stop())

	assert.Equal(t, []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}, order.all())
}

func TestPlugins_InitFailureUnwinds(t *testing.T) {
	order := &orderLog{}
	boom := errors.New("boom")
	b := newBridge(t, sheetbridge.DefaultConfig(),
		sheetbridge.WithPlugin(&testPlugin{name: "a", log: order}),
		sheetbridge.WithPlugin(&testPlugin{name: "b", log: order, initErr: boom}),
		sheetbridge.WithPlugin(&testPlugin{name: "c", log: order}),
	)

	assert.ErrorIs(t, b.Start(context.Background()), boom)
	assert.Equal(t, sheetbridge.StateStopped, b.Status())
	assert.Equal(t, []string{"init:a", "init:b", "shutdown:a"}, order.all())
}

func TestPlugins_ShutdownErrorsCombined(t *testing.T) {
	order := &orderLog{}
	errA, errB := errors.New("a failed"), errors.New("b failed")
	b := newBridge(t, sheetbridge.DefaultConfig(),
		sheetbridge.WithPlugin(&testPlugin{name: "a", log: order, shutdownErr: errA}),
		sheetbridge.WithPlugin(&testPlugin{name: "b", log: order, shutdownErr: errB}),
	)
	require.NoError(t, b.Start(context.Background()))

	err := b.Stop()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, sheetbridge.StateStopped, b.Status())
}

func TestPlugins_InstallTokens(t *testing.T) {
	fs := newFeedServer(t)
	order := &orderLog{}
	b := newBridge(t, sheetbridge.Config{FeedBaseURL: fs.URL + "/feeds", AuthToken: "config"},
		sheetbridge.WithPlugin(&testPlugin{name: "creds", log: order, onInit: func(cfg sheetbridge.PluginConfig) {
			cfg.Clients.InstallTokens("", map[string]string{"spreadsheets": "from-plugin"})
		}}),
	)
	assert.Equal(t, []string{"default"}, b.Scopes())

	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	assert.Equal(t, []string{"default", "spreadsheets"}, b.Scopes())
	_, err := b.FetchWorksheets(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-plugin", fs.lastAuth())
}

func TestBridge_InstallTokensKeepsConfigTokens(t *testing.T) {
	fs := newFeedServer(t)
	b := newBridge(t, sheetbridge.Config{
		FeedBaseURL:  fs.URL + "/feeds",
		AuthToken:    "flag-default",
		ScopedTokens: map[string]string{"drive": "flag-drive"},
	})
	require.Equal(t, []string{"default", "drive"}, b.Scopes())

	// First reload overrides the default and adds a spreadsheets client.
	b.InstallTokens("file-default", map[string]string{"spreadsheets": "file-token"})
	assert.Equal(t, []string{"default", "drive", "spreadsheets"}, b.Scopes())
	_, err := b.FetchWorksheets(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer file-token", fs.lastAuth())

	// Second reload drops the file's clients; configured tokens remain.
	b.InstallTokens("", nil)
	assert.Equal(t, []string{"default", "drive"}, b.Scopes())
	_, err = b.FetchWorksheets(context.Background(), "other")
	var remote *sheetbridge.RemoteFetchError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Bearer flag-default", fs.lastAuth())
}
