package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/sheetbridge/internal/cliconfig"
	"github.com/bft-labs/sheetbridge/pkg/log"
	"github.com/bft-labs/sheetbridge/pkg/sheetbridge"
	"github.com/bft-labs/sheetbridge/plugins/credwatcher"
)

const longHelp = `sheetbridge serves spreadsheet worksheet lists to browser clients.

Each websocket connection on /channel gets its own relay to a shared
processor. Worksheet feeds are fetched once per document and kept in memory.
Requests are authenticated with the token registered for the spreadsheets
scope, then the default token, and are sent anonymously otherwise.

Configuration is read from $HOME/.sheetbridge/config.toml, then SHEETBRIDGE_*
environment variables, then flags; later sources win.`

var exampleUsage = strings.TrimSpace(`
  sheetbridge serve --listen 127.0.0.1:8787 --auth-token <token>
  sheetbridge serve --credentials /etc/sheetbridge/credentials.toml
  sheetbridge fetch 1AbCdEf --scope-token spreadsheets=<token>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration shared by every subcommand.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger()}

	root := &cobra.Command{
		Use:           "sheetbridge",
		Short:         "Serve spreadsheet worksheet lists to browser clients",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.sheetbridge/config.toml)")
	flags.StringVar(&c.cfg.FeedBaseURL, "feed-url", c.cfg.FeedBaseURL, "spreadsheet feeds base URL")
	if err := flags.MarkHidden("feed-url"); err != nil {
		c.log.Info().Err(err).Msg("failed to hide feed-url flag")
	}
	flags.StringVar(&c.cfg.AuthToken, "auth-token", c.cfg.AuthToken, "bearer token for the default scope")
	flags.StringToStringVar(&c.cfg.ScopedTokens, "scope-token", nil, "bearer token for one scope, as scope=token (repeatable)")
	flags.StringVar(&c.cfg.CredentialsFile, "credentials", c.cfg.CredentialsFile, "TOML credentials file, reloaded on change")
	flags.DurationVar(&c.cfg.HTTPTimeout, "timeout", c.cfg.HTTPTimeout, "HTTP timeout for feed requests")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newServeCommand(c), newFetchCommand(c))

	if err := root.Execute(); err != nil {
		c.log.Error().Err(err).Msg("sheetbridge")
		os.Exit(1)
	}
}

// load resolves the configuration for cmd: file, then environment, then
// the flags the user actually set.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = cliconfig.LoggerAt(c.cfg.LogLevel)
	c.log.Debug().Interface("config", c.cfg.Redacted()).Msg("configuration")
	return nil
}

// bridge builds a Bridge from the loaded configuration.
func (c *cli) bridge(opts ...sheetbridge.Option) (*sheetbridge.Bridge, error) {
	libCfg := sheetbridge.Config{
		FeedBaseURL:     c.cfg.FeedBaseURL,
		AuthToken:       c.cfg.AuthToken,
		ScopedTokens:    c.cfg.ScopedTokens,
		HTTPTimeout:     c.cfg.HTTPTimeout,
		CacheSize:       c.cfg.CacheSize,
		SingleFlight:    c.cfg.SingleFlight,
		ShutdownTimeout: c.cfg.ShutdownTimeout,
	}

	opts = append([]sheetbridge.Option{
		sheetbridge.WithLogger(log.NewZerologAdapterWithLogger(c.log)),
	}, opts...)
	if c.cfg.CredentialsFile != "" {
		opts = append(opts, credwatcher.WithDefaultCredentialsWatcher(c.cfg.CredentialsFile))
	}

	b, err := sheetbridge.New(libCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bridge: %w", err)
	}
	return b, nil
}
